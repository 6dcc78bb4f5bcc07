package trackingmodule

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/modules/catalogmodule"
	"github.com/watchdeck/watchdeck/internal/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&database.Show{},
		&database.Watchlist{},
		&database.WatchlistMembership{},
		&database.WatchlistItem{},
		&database.UserShowSubscription{},
		&database.EpisodeProgress{},
	))
	return db
}

type localResolver struct {
	db *gorm.DB
}

func (r *localResolver) GetOrFetchShow(_ context.Context, externalID string) (*database.Show, error) {
	var show database.Show
	err := r.db.Where("external_id = ?", externalID).First(&show).Error
	if err == nil {
		return &show, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Persistence("test.resolver", err)
	}

	show = database.Show{
		ID:         utils.GenerateUUID(),
		ExternalID: externalID,
		Name:       "Show " + externalID,
	}
	if err := r.db.Create(&show).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner database.Show
			if err := r.db.Where("external_id = ?", externalID).First(&winner).Error; err == nil {
				return &winner, nil
			}
		}
		return nil, apperrors.Persistence("test.resolver", err)
	}
	return &show, nil
}

func newTestServices(t *testing.T) (*SubscriptionService, *ProgressTracker, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	releaser := catalogmodule.NewLifecycleManager(events.NewEventBus())
	subs := NewSubscriptionService(db, &localResolver{db: db}, releaser)
	return subs, NewProgressTracker(db), db
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated subscribes converge on one row", func(t *testing.T) {
		subs, _, db := newTestServices(t)

		first, err := subs.Subscribe(ctx, "alice", "100", database.StatusPlanToWatch)
		require.NoError(t, err)
		assert.Equal(t, database.StatusPlanToWatch, first.Status)

		second, err := subs.Subscribe(ctx, "alice", "100", database.StatusWatching)
		require.NoError(t, err)
		assert.Equal(t, database.StatusWatching, second.Status)
		assert.Equal(t, first.ShowID, second.ShowID)

		var count int64
		require.NoError(t, db.Model(&database.UserShowSubscription{}).
			Where("user_id = ?", "alice").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("concurrent subscribes end in a single row", func(t *testing.T) {
		subs, _, db := newTestServices(t)

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = subs.Subscribe(ctx, "alice", "200", database.StatusWatching)
			}(i)
		}
		wg.Wait()
		for i := range errs {
			require.NoError(t, errs[i])
		}

		var count int64
		require.NoError(t, db.Model(&database.UserShowSubscription{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		require.NoError(t, db.Model(&database.Show{}).Where("external_id = ?", "200").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("status defaults to watching and is validated", func(t *testing.T) {
		subs, _, _ := newTestServices(t)

		sub, err := subs.Subscribe(ctx, "alice", "300", "")
		require.NoError(t, err)
		assert.Equal(t, database.StatusWatching, sub.Status)

		_, err = subs.Subscribe(ctx, "alice", "300", "binging")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("unsubscribe removes the last reference and the show", func(t *testing.T) {
		subs, _, db := newTestServices(t)

		_, err := subs.Subscribe(ctx, "alice", "400", database.StatusWatching)
		require.NoError(t, err)
		require.NoError(t, subs.Unsubscribe(ctx, "alice", "400"))

		var count int64
		require.NoError(t, db.Model(&database.Show{}).Where("external_id = ?", "400").Count(&count).Error)
		assert.Equal(t, int64(0), count)

		err = subs.Unsubscribe(ctx, "alice", "400")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("unsubscribe keeps a show another user still tracks", func(t *testing.T) {
		subs, _, db := newTestServices(t)

		_, err := subs.Subscribe(ctx, "alice", "500", database.StatusWatching)
		require.NoError(t, err)
		_, err = subs.Subscribe(ctx, "bob", "500", database.StatusCompleted)
		require.NoError(t, err)

		require.NoError(t, subs.Unsubscribe(ctx, "alice", "500"))

		var count int64
		require.NoError(t, db.Model(&database.Show{}).Where("external_id = ?", "500").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("listing is newest first and filterable", func(t *testing.T) {
		subs, _, _ := newTestServices(t)

		_, err := subs.Subscribe(ctx, "alice", "601", database.StatusCompleted)
		require.NoError(t, err)
		_, err = subs.Subscribe(ctx, "alice", "602", database.StatusWatching)
		require.NoError(t, err)
		_, err = subs.Subscribe(ctx, "bob", "603", database.StatusWatching)
		require.NoError(t, err)

		all, err := subs.ListMine(ctx, "alice", "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.NotNil(t, all[0].Show)
		assert.Equal(t, "602", all[0].Show.ExternalID)

		watching, err := subs.ListMine(ctx, "alice", database.StatusWatching)
		require.NoError(t, err)
		require.Len(t, watching, 1)
		assert.Equal(t, database.StatusWatching, watching[0].Status)
	})
}

func TestEpisodeProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("tracking requires a subscription", func(t *testing.T) {
		subs, tracker, _ := newTestServices(t)

		// The show exists but alice never subscribed.
		_, err := subs.Subscribe(ctx, "bob", "700", database.StatusWatching)
		require.NoError(t, err)

		_, err = tracker.MarkEpisode(ctx, "alice", "700", 1, 1, true)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindPreconditionFailed, apperrors.KindOf(err))
		assert.Contains(t, err.Error(), "show must be in watchlist before tracking episodes")
	})

	t.Run("marks converge and unmarking clears the timestamp", func(t *testing.T) {
		subs, tracker, db := newTestServices(t)
		_, err := subs.Subscribe(ctx, "alice", "701", database.StatusWatching)
		require.NoError(t, err)

		marked, err := tracker.MarkEpisode(ctx, "alice", "701", 1, 3, true)
		require.NoError(t, err)
		assert.True(t, marked.Watched)
		require.NotNil(t, marked.WatchedAt)

		again, err := tracker.MarkEpisode(ctx, "alice", "701", 1, 3, true)
		require.NoError(t, err)
		assert.True(t, again.Watched)

		var count int64
		require.NoError(t, db.Model(&database.EpisodeProgress{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		unmarked, err := tracker.MarkEpisode(ctx, "alice", "701", 1, 3, false)
		require.NoError(t, err)
		assert.False(t, unmarked.Watched)
		assert.Nil(t, unmarked.WatchedAt)

		var row database.EpisodeProgress
		require.NoError(t, db.Where("user_id = ? AND season_number = ? AND episode_number = ?",
			"alice", 1, 3).First(&row).Error)
		assert.False(t, row.Watched)
		assert.Nil(t, row.WatchedAt)
	})

	t.Run("progress lists watched episodes in order", func(t *testing.T) {
		subs, tracker, _ := newTestServices(t)
		_, err := subs.Subscribe(ctx, "alice", "702", database.StatusWatching)
		require.NoError(t, err)

		for _, ep := range [][2]int{{2, 1}, {1, 4}, {1, 2}, {3, 1}} {
			_, err := tracker.MarkEpisode(ctx, "alice", "702", ep[0], ep[1], true)
			require.NoError(t, err)
		}
		// An unwatched row must not appear in the listing.
		_, err = tracker.MarkEpisode(ctx, "alice", "702", 1, 9, false)
		require.NoError(t, err)

		progress, err := tracker.ShowProgress(ctx, "alice", "702")
		require.NoError(t, err)
		require.Len(t, progress, 4)

		got := make([][2]int, 0, len(progress))
		for _, p := range progress {
			got = append(got, [2]int{p.SeasonNumber, p.EpisodeNumber})
		}
		assert.Equal(t, [][2]int{{1, 2}, {1, 4}, {2, 1}, {3, 1}}, got)
	})

	t.Run("validation and identity guards", func(t *testing.T) {
		subs, tracker, _ := newTestServices(t)
		_, err := subs.Subscribe(ctx, "alice", "703", database.StatusWatching)
		require.NoError(t, err)

		_, err = tracker.MarkEpisode(ctx, "", "703", 1, 1, true)
		assert.Equal(t, apperrors.KindNotAuthenticated, apperrors.KindOf(err))

		_, err = tracker.MarkEpisode(ctx, "alice", "703", 1, 0, true)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

		_, err = tracker.MarkEpisode(ctx, "alice", "no-such-show", 1, 1, true)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}
