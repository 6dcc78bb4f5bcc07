package catalogmodule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/modules/catalogmodule/provider"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and serializes
	// concurrent writers the way a server-grade database would.
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

// fakeProvider is an in-memory ProviderClient. Detail fetches are counted
// so tests can assert the store was consulted first.
type fakeProvider struct {
	details     map[string]*provider.ShowDetails
	detailCalls int64
	failWith    error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{details: map[string]*provider.ShowDetails{}}
}

func (f *fakeProvider) GetShowDetails(_ context.Context, externalID string) (*provider.ShowDetails, error) {
	atomic.AddInt64(&f.detailCalls, 1)
	if f.failWith != nil {
		return nil, f.failWith
	}
	d, ok := f.details[externalID]
	if !ok {
		return nil, apperrors.ExternalProvider("provider.details", assert.AnError)
	}
	return d, nil
}

func (f *fakeProvider) SearchShows(context.Context, string, int) (*provider.SearchResult, error) {
	return &provider.SearchResult{}, nil
}

func (f *fakeProvider) GetSimilarShows(context.Context, string, int) (*provider.SearchResult, error) {
	return &provider.SearchResult{}, nil
}

func (f *fakeProvider) GetPopularShows(context.Context, int) (*provider.SearchResult, error) {
	return &provider.SearchResult{}, nil
}

func (f *fakeProvider) GetTrendingShows(context.Context, string) (*provider.SearchResult, error) {
	return &provider.SearchResult{}, nil
}

func (f *fakeProvider) GetTopRatedShows(context.Context, int) (*provider.SearchResult, error) {
	return &provider.SearchResult{}, nil
}

func (f *fakeProvider) GetAiringToday(context.Context, int) (*provider.SearchResult, error) {
	return &provider.SearchResult{}, nil
}

func (f *fakeProvider) ImageURL(path string, class provider.ImageClass, size provider.ImageSize) string {
	if path == "" {
		return ""
	}
	return string(class) + ":" + string(size) + ":" + path
}

func newTestSync(t *testing.T, db *gorm.DB, fake *fakeProvider) *SyncService {
	t.Helper()
	return NewSyncService(NewStore(db), fake, events.NewEventBus())
}

func TestGetOrFetchShow(t *testing.T) {
	ctx := context.Background()

	t.Run("first reference fetches and maps the provider payload", func(t *testing.T) {
		db := setupTestDB(t)
		fake := newFakeProvider()
		fake.details["1399"] = &provider.ShowDetails{
			ID:              1399,
			Name:            "Game of Thrones",
			Overview:        "Nine noble families fight for control.",
			PosterPath:      "/poster.jpg",
			BackdropPath:    "/backdrop.jpg",
			FirstAirDate:    "2011-04-17",
			VoteAverage:     8.44,
			NumberOfSeasons: 8,
			Genres:          []provider.Genre{{ID: 18, Name: "Drama"}, {ID: 10765, Name: "Sci-Fi & Fantasy"}},
		}
		syncSvc := newTestSync(t, db, fake)

		show, err := syncSvc.GetOrFetchShow(ctx, "1399")
		require.NoError(t, err)
		assert.Equal(t, "1399", show.ExternalID)
		assert.Equal(t, "Game of Thrones", show.Name)
		assert.Equal(t, 8.4, show.Rating)
		assert.Equal(t, 8, show.TotalSeasons)
		assert.Equal(t, database.StringList{"Drama", "Sci-Fi & Fantasy"}, show.Genres)
		assert.Equal(t, "poster:large:/poster.jpg", show.PosterURL)
		assert.Equal(t, "backdrop:large:/backdrop.jpg", show.BackdropURL)
		require.NotNil(t, show.FirstAirDate)
		assert.Equal(t, "2011-04-17", show.FirstAirDate.Format("2006-01-02"))
	})

	t.Run("second reference hits the store without a provider call", func(t *testing.T) {
		db := setupTestDB(t)
		fake := newFakeProvider()
		fake.details["100"] = &provider.ShowDetails{ID: 100, Name: "Dark"}
		syncSvc := newTestSync(t, db, fake)

		first, err := syncSvc.GetOrFetchShow(ctx, "100")
		require.NoError(t, err)
		second, err := syncSvc.GetOrFetchShow(ctx, "100")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(1), atomic.LoadInt64(&fake.detailCalls))
	})

	t.Run("concurrent first references converge on one row", func(t *testing.T) {
		db := setupTestDB(t)
		fake := newFakeProvider()
		fake.details["42"] = &provider.ShowDetails{ID: 42, Name: "Severance"}
		syncSvc := newTestSync(t, db, fake)

		const workers = 16
		ids := make([]string, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				show, err := syncSvc.GetOrFetchShow(ctx, "42")
				errs[i] = err
				if err == nil {
					ids[i] = show.ID
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}

		var count int64
		require.NoError(t, db.Model(&database.Show{}).Where("external_id = ?", "42").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("provider failure leaves no partial row", func(t *testing.T) {
		db := setupTestDB(t)
		fake := newFakeProvider()
		fake.failWith = apperrors.ExternalProvider("provider.details", assert.AnError)
		syncSvc := newTestSync(t, db, fake)

		_, err := syncSvc.GetOrFetchShow(ctx, "500")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindExternalProvider, apperrors.KindOf(err))

		var count int64
		require.NoError(t, db.Model(&database.Show{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("missing show reads as not found by internal id", func(t *testing.T) {
		db := setupTestDB(t)
		syncSvc := newTestSync(t, db, newFakeProvider())

		_, err := syncSvc.GetShow(ctx, "no-such-id")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestStoreGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate insert surfaces as conflict", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)

		first := &database.Show{ID: "a", ExternalID: "ext-1", Name: "First"}
		require.NoError(t, store.Insert(ctx, first))

		dup := &database.Show{ID: "b", ExternalID: "ext-1", Name: "Second"}
		err := store.Insert(ctx, dup)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("loser adopts the winner's row", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)

		winner := &database.Show{ID: "w", ExternalID: "ext-2", Name: "Winner"}
		created, wasCreated, err := store.GetOrCreate(ctx, winner)
		require.NoError(t, err)
		assert.True(t, wasCreated)
		assert.Equal(t, "w", created.ID)

		loser := &database.Show{ID: "l", ExternalID: "ext-2", Name: "Loser"}
		adopted, wasCreated, err := store.GetOrCreate(ctx, loser)
		require.NoError(t, err)
		assert.False(t, wasCreated)
		assert.Equal(t, "w", adopted.ID)
		assert.Equal(t, "Winner", adopted.Name)
	})
}
