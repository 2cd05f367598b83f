package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockbridge/backend/internal/domain/catalog"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Orchestrator
// ---------------------------------------------------------------------------

// SellerLocker provides per-seller mutual exclusion for sweeps. Acquire
// returns shared.ErrSyncInProgress when another sweep already holds the lock;
// the caller must invoke the returned release function when done.
type SellerLocker interface {
	Acquire(ctx context.Context, sellerID uuid.UUID) (release func(), err error)
}

// Config tunes a sweep
type Config struct {
	// OrderLookback is the fetch horizon for a credential's first sync
	OrderLookback time.Duration
	// WatermarkOverlap is subtracted from the watermark on each fetch to
	// tolerate clock skew between us and the platform
	WatermarkOverlap time.Duration
	// CredentialConcurrency bounds the fan-out across a seller's credentials
	CredentialConcurrency int
	// Retry governs transient provider failures
	Retry RetryPolicy
}

// DefaultConfig returns conservative sweep settings
func DefaultConfig() Config {
	return Config{
		OrderLookback:         30 * 24 * time.Hour,
		WatermarkOverlap:      5 * time.Minute,
		CredentialConcurrency: 3,
		Retry:                 DefaultRetryPolicy(),
	}
}

// Orchestrator runs reconciliation sweeps: it fans out over a seller's
// connected accounts, imports orders since each credential's watermark, and
// reconciles every tracked listing against its remote state. One credential's
// failure never aborts the others.
type Orchestrator struct {
	credentialRepo channel.CredentialRepository
	orderRepo      channel.OrderRepository
	listingRepo    channel.ListingRepository
	runRepo        channel.SyncRunRepository
	providers      channel.ProviderRegistry
	cipher         *channel.SecretCipher
	reconciler     *Reconciler
	locker         SellerLocker
	events         shared.EventPublisher
	config         Config
	logger         *zap.Logger
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(
	credentialRepo channel.CredentialRepository,
	orderRepo channel.OrderRepository,
	listingRepo channel.ListingRepository,
	runRepo channel.SyncRunRepository,
	providers channel.ProviderRegistry,
	cipher *channel.SecretCipher,
	stockReader catalog.StockReader,
	locker SellerLocker,
	events shared.EventPublisher,
	config Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		credentialRepo: credentialRepo,
		orderRepo:      orderRepo,
		listingRepo:    listingRepo,
		runRepo:        runRepo,
		providers:      providers,
		cipher:         cipher,
		reconciler:     NewReconciler(stockReader, listingRepo, events, config.Retry, logger),
		locker:         locker,
		events:         events,
		config:         config,
		logger:         logger,
	}
}

// RunSync executes one sweep for a seller. Manual and scheduled triggers
// share this path; concurrent sweeps for the same seller are rejected with
// shared.ErrSyncInProgress rather than queued.
func (o *Orchestrator) RunSync(ctx context.Context, cmd RunSyncCommand) (*channel.SyncRun, error) {
	if cmd.SellerID == uuid.Nil {
		return nil, channel.ErrInvalidSellerID
	}
	if cmd.Platform != nil && !cmd.Platform.IsValid() {
		return nil, channel.ErrInvalidPlatformCode
	}
	if cmd.Trigger == "" {
		cmd.Trigger = channel.RunTriggerManual
	}

	release, err := o.locker.Acquire(ctx, cmd.SellerID)
	if err != nil {
		return nil, err
	}
	defer release()

	run := channel.NewSyncRun(cmd.SellerID, cmd.Platform, cmd.Trigger)

	credentials, err := o.credentialRepo.FindActiveBySeller(ctx, cmd.SellerID, cmd.Platform)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	o.logger.Info("Starting sync sweep",
		zap.String("run_id", run.ID.String()),
		zap.String("seller_id", cmd.SellerID.String()),
		zap.String("trigger", string(cmd.Trigger)),
		zap.Int("credentials", len(credentials)),
	)

	report := channel.NewRunReport()

	concurrency := o.config.CredentialConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var (
		wg gosync.WaitGroup
		mu gosync.Mutex
	)
	for i := range credentials {
		cred := credentials[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := o.syncCredential(ctx, &cred)

			mu.Lock()
			report.Add(outcome)
			mu.Unlock()
		}()
	}
	wg.Wait()

	run.Complete(report)
	if err := o.runRepo.Save(ctx, run); err != nil {
		o.logger.Error("Failed to persist sync run",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		// The sweep itself succeeded; the caller still gets the report
	}

	o.logger.Info("Sync sweep completed",
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Int("orders_synced", report.Synced),
		zap.Int("orders_new", report.New),
		zap.Int("failed", report.Failed),
	)

	return run, nil
}

// syncCredential runs the order import and listing reconciliation for one
// connected account. All failure handling is local so credentials stay
// isolated from each other.
func (o *Orchestrator) syncCredential(ctx context.Context, cred *channel.Credential) channel.CredentialOutcome {
	outcome := channel.CredentialOutcome{
		CredentialID:      cred.ID,
		PlatformCode:      cred.PlatformCode,
		ExternalAccountID: cred.ExternalAccountID,
		Status:            channel.CredentialRunOK,
	}
	now := time.Now()

	provider, err := o.providers.Provider(cred.PlatformCode)
	if err != nil {
		return o.failCredential(ctx, cred, outcome, now, err)
	}

	// A locally-known expiry short-circuits before any network call
	if cred.IsExpired(now) {
		return o.expireCredential(ctx, cred, outcome, now)
	}

	grant, err := cred.Grant(o.cipher)
	if err != nil {
		return o.failCredential(ctx, cred, outcome, now, err)
	}

	if err := o.importOrders(ctx, provider, grant, cred, &outcome); err != nil {
		if channel.IsAuthExpired(err) {
			return o.expireCredential(ctx, cred, outcome, now)
		}
		// Order import failed but listing checks are independent; keep going
		// so one phase's failure does not blind the other
		outcome.Status = channel.CredentialRunFailed
		outcome.Error = err.Error()
	}

	if err := o.reconcileListings(ctx, provider, grant, cred, &outcome); err != nil {
		if channel.IsAuthExpired(err) {
			return o.expireCredential(ctx, cred, outcome, now)
		}
		outcome.Status = channel.CredentialRunFailed
		if outcome.Error == "" {
			outcome.Error = err.Error()
		}
	}

	cred.RecordSyncOutcome(now, outcome.Error)
	if err := o.credentialRepo.Save(ctx, cred); err != nil {
		o.logger.Error("Failed to persist credential sync state",
			zap.String("credential_id", cred.ID.String()),
			zap.Error(err),
		)
	}
	return outcome
}

// importOrders fetches orders since the credential's watermark, maps them to
// canonical form, and upserts them. The watermark advances only to the
// maximum remote timestamp actually observed, never to the local clock.
func (o *Orchestrator) importOrders(ctx context.Context, provider channel.MarketplaceProvider, grant channel.AccessGrant, cred *channel.Credential, outcome *channel.CredentialOutcome) error {
	since := cred.SinceWindow(time.Now(), o.config.OrderLookback, o.config.WatermarkOverlap)

	var raws []channel.RawOrder
	err := o.config.Retry.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		raws, fetchErr = provider.FetchOrdersSince(ctx, grant, since)
		return fetchErr
	})
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}

	orders, defects := channel.MapOrderBatch(cred.SellerID, cred.ID, raws, provider.MapStatus)
	for _, defect := range defects {
		o.logger.Warn("Skipping unmappable order record",
			zap.String("credential_id", cred.ID.String()),
			zap.String("platform_code", string(cred.PlatformCode)),
			zap.Error(defect),
		)
	}
	outcome.OrdersFailed += len(defects)

	var maxObserved time.Time
	for _, order := range orders {
		created, err := o.orderRepo.Upsert(ctx, order)
		if err != nil {
			o.logger.Error("Failed to upsert order",
				zap.String("external_order_id", order.ExternalOrderID),
				zap.String("platform_code", string(order.PlatformCode)),
				zap.Error(err),
			)
			outcome.OrdersFailed++
			continue
		}
		outcome.OrdersSynced++
		if created {
			outcome.OrdersNew++
		}
		if order.PlacedAt.After(maxObserved) {
			maxObserved = order.PlacedAt
		}
	}

	cred.AdvanceWatermark(maxObserved)
	return nil
}

// reconcileListings checks every listing tracked under the credential against
// its remote state. A credential-level auth failure aborts the scan and marks
// the remaining listings without further provider calls.
func (o *Orchestrator) reconcileListings(ctx context.Context, provider channel.MarketplaceProvider, grant channel.AccessGrant, cred *channel.Credential, outcome *channel.CredentialOutcome) error {
	listings, err := o.listingRepo.FindByCredential(ctx, cred.ID)
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}

	for i := range listings {
		listing := &listings[i]
		if listing.PlatformProductID == nil {
			// Never published, nothing to compare against
			continue
		}

		if err := o.reconciler.ReconcileListing(ctx, provider, grant, listing); err != nil {
			if channel.IsAuthExpired(err) {
				o.markListingsAuthExpired(ctx, listings[i:])
				return err
			}
			o.logger.Warn("Listing reconciliation failed",
				zap.String("listing_id", listing.ID.String()),
				zap.Error(err),
			)
		}
		outcome.ListingsChecked++
	}
	return nil
}

// markListingsAuthExpired flags listings after their credential was rejected,
// skipping remote calls that would only fail the same way
func (o *Orchestrator) markListingsAuthExpired(ctx context.Context, listings []channel.ProductListing) {
	now := time.Now()
	for i := range listings {
		listing := &listings[i]
		if listing.PlatformProductID == nil {
			continue
		}
		listing.ApplyAuthExpired(now)
		if err := o.listingRepo.Save(ctx, listing); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				// Another writer got there first; its state stands
				continue
			}
			o.logger.Error("Failed to persist listing auth state",
				zap.String("listing_id", listing.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// expireCredential finalizes a credential whose platform rejected it: the
// outcome is reported distinctly so the UI prompts reconnection, listings are
// flagged, and subscribers are notified.
func (o *Orchestrator) expireCredential(ctx context.Context, cred *channel.Credential, outcome channel.CredentialOutcome, now time.Time) channel.CredentialOutcome {
	outcome.Status = channel.CredentialRunAuthExpired
	outcome.Error = channel.ErrAuthExpired.Error()

	listings, err := o.listingRepo.FindByCredential(ctx, cred.ID)
	if err != nil {
		o.logger.Error("Failed to load listings for expired credential",
			zap.String("credential_id", cred.ID.String()),
			zap.Error(err),
		)
	} else {
		o.markListingsAuthExpired(ctx, listings)
	}

	cred.RecordSyncOutcome(now, outcome.Error)
	if err := o.credentialRepo.Save(ctx, cred); err != nil {
		o.logger.Error("Failed to persist credential sync state",
			zap.String("credential_id", cred.ID.String()),
			zap.Error(err),
		)
	}

	if err := o.events.Publish(ctx, channel.NewCredentialAuthExpiredEvent(cred)); err != nil {
		o.logger.Warn("Failed to publish auth expired event",
			zap.String("credential_id", cred.ID.String()),
			zap.Error(err),
		)
	}

	o.logger.Warn("Credential requires reconnection",
		zap.String("credential_id", cred.ID.String()),
		zap.String("platform_code", string(cred.PlatformCode)),
		zap.String("external_account_id", cred.ExternalAccountID),
	)
	return outcome
}

// failCredential records a non-auth credential failure
func (o *Orchestrator) failCredential(ctx context.Context, cred *channel.Credential, outcome channel.CredentialOutcome, now time.Time, cause error) channel.CredentialOutcome {
	outcome.Status = channel.CredentialRunFailed
	outcome.Error = cause.Error()

	cred.RecordSyncOutcome(now, outcome.Error)
	if err := o.credentialRepo.Save(ctx, cred); err != nil {
		o.logger.Error("Failed to persist credential sync state",
			zap.String("credential_id", cred.ID.String()),
			zap.Error(err),
		)
	}
	return outcome
}
