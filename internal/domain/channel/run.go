package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Run Types
// ---------------------------------------------------------------------------

// RunTrigger records what started a sweep
type RunTrigger string

const (
	// RunTriggerManual indicates a seller-initiated run
	RunTriggerManual RunTrigger = "manual"
	// RunTriggerScheduled indicates a timer-initiated run
	RunTriggerScheduled RunTrigger = "scheduled"
)

// RunStatus is the overall outcome of a sweep
type RunStatus string

const (
	// RunStatusRunning indicates the sweep is in progress
	RunStatusRunning RunStatus = "running"
	// RunStatusSuccess indicates every credential synced cleanly
	RunStatusSuccess RunStatus = "success"
	// RunStatusPartial indicates some credentials failed, others succeeded
	RunStatusPartial RunStatus = "partial"
	// RunStatusFailed indicates no credential synced
	RunStatusFailed RunStatus = "failed"
)

// CredentialRunStatus is the per-credential outcome within a sweep
type CredentialRunStatus string

const (
	// CredentialRunOK indicates the credential synced cleanly
	CredentialRunOK CredentialRunStatus = "ok"
	// CredentialRunAuthExpired indicates the credential needs reconnection;
	// reported distinctly so the UI prompts "reconnect" instead of "retry"
	CredentialRunAuthExpired CredentialRunStatus = "auth_expired"
	// CredentialRunFailed indicates a non-auth failure after retries
	CredentialRunFailed CredentialRunStatus = "failed"
)

// CredentialOutcome is the detailed per-credential result of a sweep
type CredentialOutcome struct {
	// CredentialID identifies the credential
	CredentialID uuid.UUID `json:"credential_id"`
	// PlatformCode is the credential's platform
	PlatformCode PlatformCode `json:"platform_code"`
	// ExternalAccountID is the account on the platform
	ExternalAccountID string `json:"external_account_id"`
	// Status is the outcome class
	Status CredentialRunStatus `json:"status"`
	// OrdersSynced is how many orders were upserted (new or updated)
	OrdersSynced int `json:"orders_synced"`
	// OrdersNew is how many orders were created for the first time
	OrdersNew int `json:"orders_new"`
	// OrdersFailed is how many records failed canonical mapping
	OrdersFailed int `json:"orders_failed"`
	// ListingsChecked is how many listings were reconciled
	ListingsChecked int `json:"listings_checked"`
	// Error is the failure description, empty on success
	Error string `json:"error,omitempty"`
}

// PlatformReport aggregates counts per platform within a run
type PlatformReport struct {
	Synced int `json:"synced"`
	New    int `json:"new"`
	Failed int `json:"failed"`
}

// RunReport is the aggregate returned to the caller of a sweep and persisted
// with the run record
type RunReport struct {
	// Synced is the total number of orders upserted
	Synced int `json:"synced"`
	// New is the total number of newly created orders
	New int `json:"new"`
	// Failed is the total number of failed records and credentials
	Failed int `json:"failed"`
	// PerPlatform breaks the totals down by platform
	PerPlatform map[PlatformCode]PlatformReport `json:"per_platform"`
	// Credentials holds the per-credential outcomes
	Credentials []CredentialOutcome `json:"credentials"`
}

// NewRunReport creates an empty report
func NewRunReport() *RunReport {
	return &RunReport{
		PerPlatform: make(map[PlatformCode]PlatformReport),
		Credentials: make([]CredentialOutcome, 0),
	}
}

// Add merges a credential outcome into the report totals
func (r *RunReport) Add(outcome CredentialOutcome) {
	r.Synced += outcome.OrdersSynced
	r.New += outcome.OrdersNew
	if outcome.Status != CredentialRunOK {
		r.Failed++
	}
	r.Failed += outcome.OrdersFailed

	p := r.PerPlatform[outcome.PlatformCode]
	p.Synced += outcome.OrdersSynced
	p.New += outcome.OrdersNew
	if outcome.Status != CredentialRunOK {
		p.Failed++
	}
	p.Failed += outcome.OrdersFailed
	r.PerPlatform[outcome.PlatformCode] = p

	r.Credentials = append(r.Credentials, outcome)
}

// OverallStatus derives the run status from the credential outcomes
func (r *RunReport) OverallStatus() RunStatus {
	if len(r.Credentials) == 0 {
		return RunStatusSuccess
	}
	ok, failed := 0, 0
	for _, c := range r.Credentials {
		if c.Status == CredentialRunOK {
			ok++
		} else {
			failed++
		}
	}
	switch {
	case failed == 0:
		return RunStatusSuccess
	case ok == 0:
		return RunStatusFailed
	default:
		return RunStatusPartial
	}
}

// ---------------------------------------------------------------------------
// SyncRun Entity
// ---------------------------------------------------------------------------

// SyncRun is the persisted record of one sweep over a seller's credentials
type SyncRun struct {
	// ID is the unique identifier of this run
	ID uuid.UUID
	// SellerID is the seller the sweep ran for
	SellerID uuid.UUID
	// PlatformCode restricts the sweep to one platform; nil means all
	PlatformCode *PlatformCode
	// Trigger records what started the run
	Trigger RunTrigger
	// Status is the overall outcome
	Status RunStatus
	// Report holds the detailed counts
	Report *RunReport
	// StartedAt is when the sweep began
	StartedAt time.Time
	// FinishedAt is when the sweep completed; nil while running
	FinishedAt *time.Time
}

// NewSyncRun creates a run record in the running state
func NewSyncRun(sellerID uuid.UUID, platform *PlatformCode, trigger RunTrigger) *SyncRun {
	return &SyncRun{
		ID:           uuid.New(),
		SellerID:     sellerID,
		PlatformCode: platform,
		Trigger:      trigger,
		Status:       RunStatusRunning,
		Report:       NewRunReport(),
		StartedAt:    time.Now(),
	}
}

// Complete finalizes the run with its report
func (s *SyncRun) Complete(report *RunReport) {
	now := time.Now()
	s.Report = report
	s.Status = report.OverallStatus()
	s.FinishedAt = &now
}

// ---------------------------------------------------------------------------
// SyncRunRepository
// ---------------------------------------------------------------------------

// SyncRunRepository persists sweep records
type SyncRunRepository interface {
	// Save creates or updates a run record
	Save(ctx context.Context, run *SyncRun) error

	// FindRecentBySeller returns the most recent runs for a seller
	FindRecentBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]SyncRun, error)
}
