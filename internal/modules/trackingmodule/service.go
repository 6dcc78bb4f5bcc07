package trackingmodule

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

// ShowResolver resolves external catalog ids to canonical show records.
// Satisfied by the catalog module.
type ShowResolver interface {
	GetOrFetchShow(ctx context.Context, externalID string) (*database.Show, error)
}

// ShowReleaser drops a reference to a show inside the caller's transaction.
// Satisfied by the catalog module.
type ShowReleaser interface {
	ReleaseShow(tx *gorm.DB, showID string) error
}

// SubscriptionService manages a user's personal show subscriptions. A
// subscription is one row per (user, show); repeated subscribes converge on
// a single row through an upsert.
type SubscriptionService struct {
	db       *gorm.DB
	resolver ShowResolver
	releaser ShowReleaser
}

// NewSubscriptionService creates a subscription service.
func NewSubscriptionService(db *gorm.DB, resolver ShowResolver, releaser ShowReleaser) *SubscriptionService {
	return &SubscriptionService{db: db, resolver: resolver, releaser: releaser}
}

// Subscribe adds or updates the actor's subscription to a show, resolving
// the external id through the catalog first. Concurrent subscribes to the
// same show end in one row carrying the last writer's status.
func (s *SubscriptionService) Subscribe(ctx context.Context, actorID, externalID string, status database.SubscriptionStatus) (*database.UserShowSubscription, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("tracking.subscribe")
	}
	if externalID == "" {
		return nil, apperrors.Validation("tracking.subscribe", "external show id is required")
	}
	if status == "" {
		status = database.StatusWatching
	}
	if !status.Valid() {
		return nil, apperrors.Validation("tracking.subscribe", "invalid subscription status")
	}

	show, err := s.resolver.GetOrFetchShow(ctx, externalID)
	if err != nil {
		return nil, err
	}

	subscription := &database.UserShowSubscription{
		UserID:    actorID,
		ShowID:    show.ID,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "show_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(subscription).Error
	if err != nil {
		return nil, apperrors.Persistence("tracking.subscribe", err)
	}

	subscription.Show = show
	return subscription, nil
}

// Unsubscribe removes the actor's subscription to a show and releases the
// show reference in the same transaction.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, actorID, externalID string) error {
	if actorID == "" {
		return apperrors.NotAuthenticated("tracking.unsubscribe")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		show, err := showByExternalID(tx, "tracking.unsubscribe", externalID)
		if err != nil {
			return err
		}

		result := tx.Where("user_id = ? AND show_id = ?", actorID, show.ID).
			Delete(&database.UserShowSubscription{})
		if result.Error != nil {
			return apperrors.Persistence("tracking.unsubscribe", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("tracking.unsubscribe", "subscription")
		}

		// Episode progress lives and dies with the subscription.
		err = tx.Where("user_id = ? AND show_id = ?", actorID, show.ID).
			Delete(&database.EpisodeProgress{}).Error
		if err != nil {
			return apperrors.Persistence("tracking.unsubscribe", err)
		}

		return s.releaser.ReleaseShow(tx, show.ID)
	})
}

// ListMine returns the actor's subscriptions with shows preloaded, most
// recently updated first. A valid status narrows the listing.
func (s *SubscriptionService) ListMine(ctx context.Context, actorID string, status database.SubscriptionStatus) ([]database.UserShowSubscription, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("tracking.list_mine")
	}

	query := s.db.WithContext(ctx).
		Preload("Show").
		Where("user_id = ?", actorID).
		Order("updated_at DESC")
	if status != "" {
		if !status.Valid() {
			return nil, apperrors.Validation("tracking.list_mine", "invalid subscription status")
		}
		query = query.Where("status = ?", status)
	}

	var subscriptions []database.UserShowSubscription
	if err := query.Find(&subscriptions).Error; err != nil {
		return nil, apperrors.Persistence("tracking.list_mine", err)
	}
	return subscriptions, nil
}

// showByExternalID looks up an already-synchronized show on the given
// handle. Unlike the resolver it never reaches out to the provider.
func showByExternalID(tx *gorm.DB, op, externalID string) (*database.Show, error) {
	var show database.Show
	err := tx.Where("external_id = ?", externalID).First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, "show")
		}
		return nil, apperrors.Persistence(op, err)
	}
	return &show, nil
}
