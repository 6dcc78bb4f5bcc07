package catalogmodule

import (
	"errors"

	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/logger"
)

// LifecycleManager removes canonical show rows once nothing references them.
// A show is referenced by watchlist items and by user subscriptions; the
// count and the delete happen inside the caller's transaction so a reference
// added concurrently either lands before the count or fails its foreign key.
type LifecycleManager struct {
	bus *events.EventBus
}

// NewLifecycleManager creates a lifecycle manager.
func NewLifecycleManager(bus *events.EventBus) *LifecycleManager {
	return &LifecycleManager{bus: bus}
}

// RefCount returns the number of live references to a show on the given
// handle: watchlist items plus user subscriptions.
func (m *LifecycleManager) RefCount(tx *gorm.DB, showID string) (int64, error) {
	var itemCount int64
	err := tx.Model(&database.WatchlistItem{}).
		Where("show_id = ?", showID).
		Count(&itemCount).Error
	if err != nil {
		return 0, apperrors.Persistence("catalog.ref_count", err)
	}

	var subCount int64
	err = tx.Model(&database.UserShowSubscription{}).
		Where("show_id = ?", showID).
		Count(&subCount).Error
	if err != nil {
		return 0, apperrors.Persistence("catalog.ref_count", err)
	}

	return itemCount + subCount, nil
}

// ReleaseShow is called after a reference to showID has been removed, inside
// the same transaction that removed it. It recounts the remaining references
// and deletes the show row when none are left. The recount must share the
// removal's transaction; counting afterwards on a fresh handle would race
// with concurrent re-additions.
func (m *LifecycleManager) ReleaseShow(tx *gorm.DB, showID string) error {
	refs, err := m.RefCount(tx, showID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return nil
	}

	var show database.Show
	err = tx.Where("id = ?", showID).First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already gone; a concurrent release won.
			return nil
		}
		return apperrors.Persistence("catalog.release_show", err)
	}

	if err := tx.Delete(&database.Show{}, "id = ?", showID).Error; err != nil {
		return apperrors.Persistence("catalog.release_show", err)
	}

	logger.Info("unreferenced show removed", []logger.Field{
		logger.String("show_id", showID),
		logger.String("external_id", show.ExternalID),
	})
	if m.bus != nil {
		m.bus.Publish(events.NewShowEvent(events.EventShowDeleted, showID, show.ExternalID))
	}
	return nil
}
