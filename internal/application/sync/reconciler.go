package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/stockbridge/backend/internal/domain/catalog"
	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Reconciler
// ---------------------------------------------------------------------------

// Reconciler compares one listing at a time against its remote state and
// applies the resulting status transition. Central stock is read, compared,
// and never written; a mismatch produces a divergence report, not a
// correction.
type Reconciler struct {
	stockReader catalog.StockReader
	listingRepo channel.ListingRepository
	events      shared.EventPublisher
	retry       RetryPolicy
	logger      *zap.Logger
}

// NewReconciler creates a Reconciler
func NewReconciler(
	stockReader catalog.StockReader,
	listingRepo channel.ListingRepository,
	events shared.EventPublisher,
	retry RetryPolicy,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		stockReader: stockReader,
		listingRepo: listingRepo,
		events:      events,
		retry:       retry,
		logger:      logger,
	}
}

// ReconcileListing fetches the listing's remote state and applies the
// appropriate transition. Auth failures are returned to the caller so it can
// stop scanning under a dead credential; every other outcome is absorbed into
// the listing's status.
func (r *Reconciler) ReconcileListing(ctx context.Context, provider channel.MarketplaceProvider, grant channel.AccessGrant, listing *channel.ProductListing) error {
	now := time.Now()

	var remote *channel.RemoteListingState
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		remote, fetchErr = provider.FetchListingState(ctx, grant, *listing.PlatformProductID)
		return fetchErr
	})

	switch {
	case err == nil:
		return r.applyRemoteState(ctx, listing, remote)

	case channel.IsNotFound(err):
		prev := listing.ApplyNotFound(now)
		saved, saveErr := r.saveObservation(ctx, listing)
		if saveErr != nil {
			return saveErr
		}
		if saved && prev != channel.ListingStatusDisconnected {
			r.publish(ctx, channel.NewListingDisconnectedEvent(listing))
		}
		return nil

	case channel.IsAuthExpired(err):
		listing.ApplyAuthExpired(now)
		if _, saveErr := r.saveObservation(ctx, listing); saveErr != nil {
			r.logger.Error("Failed to persist listing auth state",
				zap.String("listing_id", listing.ID.String()),
				zap.Error(saveErr),
			)
		}
		return err

	default:
		listing.ApplyTransientError(err.Error(), now)
		if _, saveErr := r.saveObservation(ctx, listing); saveErr != nil {
			return saveErr
		}
		return err
	}
}

// saveObservation persists a transition. A concurrency conflict means another
// writer (a republish, or a parallel sweep) committed while this observation
// was in flight: the observation describes a remote object that may no longer
// be the listing's, so it is dropped and the next sweep re-checks.
func (r *Reconciler) saveObservation(ctx context.Context, listing *channel.ProductListing) (bool, error) {
	err := r.listingRepo.Save(ctx, listing)
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		r.logger.Info("Dropping stale listing observation",
			zap.String("listing_id", listing.ID.String()),
			zap.String("sync_status", string(listing.SyncStatus)),
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// applyRemoteState compares the observed remote state against central stock
// and records the outcome
func (r *Reconciler) applyRemoteState(ctx context.Context, listing *channel.ProductListing, remote *channel.RemoteListingState) error {
	central, err := r.stockReader.StockQuantity(ctx, listing.ProductID)
	if err != nil {
		listing.ApplyTransientError("central stock unavailable: "+err.Error(), time.Now())
		if _, saveErr := r.saveObservation(ctx, listing); saveErr != nil {
			return saveErr
		}
		return err
	}

	prev := listing.ApplyRemoteState(*remote, central)
	saved, err := r.saveObservation(ctx, listing)
	if err != nil {
		return err
	}

	// Alert once per divergence episode, not on every re-observation
	if saved && listing.SyncStatus == channel.ListingStatusDivergent && prev != channel.ListingStatusDivergent {
		r.publish(ctx, channel.NewDivergenceDetectedEvent(listing, central, remote.Stock))
	}
	return nil
}

func (r *Reconciler) publish(ctx context.Context, event shared.DomainEvent) {
	if err := r.events.Publish(ctx, event); err != nil {
		r.logger.Warn("Failed to publish sync event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}
