package trackingmodule

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

// ProgressTracker records per-episode watched state for subscribed shows.
type ProgressTracker struct {
	db *gorm.DB
}

// NewProgressTracker creates a progress tracker.
func NewProgressTracker(db *gorm.DB) *ProgressTracker {
	return &ProgressTracker{db: db}
}

// MarkEpisode sets the watched state of a single episode. The actor must
// already be subscribed to the show; marking watched stamps the time,
// unmarking clears it. Repeated marks converge on one row per episode.
func (t *ProgressTracker) MarkEpisode(ctx context.Context, actorID, externalID string, season, episode int, watched bool) (*database.EpisodeProgress, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("tracking.mark_episode")
	}
	if season < 0 || episode < 1 {
		return nil, apperrors.Validation("tracking.mark_episode", "invalid season or episode number")
	}

	show, err := showByExternalID(t.db.WithContext(ctx), "tracking.mark_episode", externalID)
	if err != nil {
		return nil, err
	}

	var subscriptions int64
	err = t.db.WithContext(ctx).
		Model(&database.UserShowSubscription{}).
		Where("user_id = ? AND show_id = ?", actorID, show.ID).
		Count(&subscriptions).Error
	if err != nil {
		return nil, apperrors.Persistence("tracking.mark_episode", err)
	}
	if subscriptions == 0 {
		return nil, apperrors.PreconditionFailed("tracking.mark_episode",
			"show must be in watchlist before tracking episodes")
	}

	progress := &database.EpisodeProgress{
		UserID:        actorID,
		ShowID:        show.ID,
		SeasonNumber:  season,
		EpisodeNumber: episode,
		Watched:       watched,
	}
	if watched {
		now := time.Now()
		progress.WatchedAt = &now
	}

	err = t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "show_id"},
				{Name: "season_number"}, {Name: "episode_number"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"watched", "watched_at"}),
		}).
		Create(progress).Error
	if err != nil {
		return nil, apperrors.Persistence("tracking.mark_episode", err)
	}
	return progress, nil
}

// ShowProgress returns the actor's watched episodes for a show, ordered by
// season then episode.
func (t *ProgressTracker) ShowProgress(ctx context.Context, actorID, externalID string) ([]database.EpisodeProgress, error) {
	if actorID == "" {
		return nil, apperrors.NotAuthenticated("tracking.show_progress")
	}

	show, err := showByExternalID(t.db.WithContext(ctx), "tracking.show_progress", externalID)
	if err != nil {
		return nil, err
	}

	var progress []database.EpisodeProgress
	err = t.db.WithContext(ctx).
		Where("user_id = ? AND show_id = ? AND watched = ?", actorID, show.ID, true).
		Order("season_number ASC, episode_number ASC").
		Find(&progress).Error
	if err != nil {
		return nil, apperrors.Persistence("tracking.show_progress", err)
	}
	return progress, nil
}
