package catalogmodule

import (
	"context"
	"math"
	"time"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/modules/catalogmodule/provider"
	"github.com/watchdeck/watchdeck/internal/utils"
)

// ProviderClient is the read-only surface of the external catalog the sync
// service depends on.
type ProviderClient interface {
	SearchShows(ctx context.Context, query string, page int) (*provider.SearchResult, error)
	GetShowDetails(ctx context.Context, externalID string) (*provider.ShowDetails, error)
	GetSimilarShows(ctx context.Context, externalID string, page int) (*provider.SearchResult, error)
	GetPopularShows(ctx context.Context, page int) (*provider.SearchResult, error)
	GetTrendingShows(ctx context.Context, timeWindow string) (*provider.SearchResult, error)
	GetTopRatedShows(ctx context.Context, page int) (*provider.SearchResult, error)
	GetAiringToday(ctx context.Context, page int) (*provider.SearchResult, error)
	ImageURL(path string, class provider.ImageClass, size provider.ImageSize) string
}

// SyncService resolves external catalog ids to canonical local show records,
// deduplicating concurrent creations through the store's optimistic upsert.
type SyncService struct {
	store    *Store
	provider ProviderClient
	bus      *events.EventBus
}

// NewSyncService creates a catalog sync service.
func NewSyncService(store *Store, providerClient ProviderClient, bus *events.EventBus) *SyncService {
	return &SyncService{
		store:    store,
		provider: providerClient,
		bus:      bus,
	}
}

// GetOrFetchShow returns the canonical show for an external id, fetching it
// from the provider on first reference. For any external id at most one row
// ever exists: concurrent first references race on the insert and losers
// adopt the winner's row. No row is written unless the provider fetch fully
// succeeded.
func (s *SyncService) GetOrFetchShow(ctx context.Context, externalID string) (*database.Show, error) {
	show, err := s.store.GetByExternalID(ctx, externalID)
	if err == nil {
		return show, nil
	}
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}

	details, err := s.provider.GetShowDetails(ctx, externalID)
	if err != nil {
		return nil, err
	}

	candidate := s.mapDetails(externalID, details)
	created, wasCreated, err := s.store.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, err
	}

	if wasCreated {
		logger.Info("canonical show created", []logger.Field{
			logger.String("external_id", externalID),
			logger.String("show_id", created.ID),
		})
		s.bus.Publish(events.NewShowEvent(events.EventShowCreated, created.ID, externalID))
	}

	return created, nil
}

// GetShow returns the canonical show by internal id.
func (s *SyncService) GetShow(ctx context.Context, id string) (*database.Show, error) {
	return s.store.GetByID(ctx, id)
}

// mapDetails converts a provider detail payload into a canonical show row.
// The canonical record carries the large image renditions; list surfaces
// annotate their own at medium.
func (s *SyncService) mapDetails(externalID string, d *provider.ShowDetails) *database.Show {
	genres := make(database.StringList, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}

	var firstAirDate *time.Time
	if d.FirstAirDate != "" {
		if parsed, err := time.Parse("2006-01-02", d.FirstAirDate); err == nil {
			firstAirDate = &parsed
		}
	}

	return &database.Show{
		ID:           utils.GenerateUUID(),
		ExternalID:   externalID,
		Name:         d.Name,
		Description:  d.Overview,
		PosterURL:    s.provider.ImageURL(d.PosterPath, provider.ImagePoster, provider.SizeLarge),
		BackdropURL:  s.provider.ImageURL(d.BackdropPath, provider.ImageBackdrop, provider.SizeLarge),
		FirstAirDate: firstAirDate,
		Rating:       math.Round(d.VoteAverage*10) / 10,
		TotalSeasons: d.NumberOfSeasons,
		Genres:       genres,
	}
}

// AnnotatedShow is a search or discovery result with composed image URLs.
type AnnotatedShow struct {
	provider.ShowSummary
	PosterURL   string `json:"poster_url"`
	BackdropURL string `json:"backdrop_url"`
}

// SearchPage is a page of annotated results.
type SearchPage struct {
	Page         int             `json:"page"`
	TotalResults int             `json:"total_results"`
	TotalPages   int             `json:"total_pages"`
	Results      []AnnotatedShow `json:"results"`
}

// SearchShows queries the provider and annotates results with medium image
// URLs for list rendering.
func (s *SyncService) SearchShows(ctx context.Context, query string, page int) (*SearchPage, error) {
	result, err := s.provider.SearchShows(ctx, query, page)
	if err != nil {
		return nil, err
	}
	return s.annotate(result), nil
}

// SimilarShows returns shows similar to the given external id.
func (s *SyncService) SimilarShows(ctx context.Context, externalID string, page int) (*SearchPage, error) {
	result, err := s.provider.GetSimilarShows(ctx, externalID, page)
	if err != nil {
		return nil, err
	}
	return s.annotate(result), nil
}

// DiscoverShows returns a curated provider listing: popular, trending,
// top_rated, or airing_today. Unknown kinds fall back to popular.
func (s *SyncService) DiscoverShows(ctx context.Context, kind string, page int) (*SearchPage, error) {
	var (
		result *provider.SearchResult
		err    error
	)

	switch kind {
	case "trending":
		result, err = s.provider.GetTrendingShows(ctx, "week")
	case "top_rated":
		result, err = s.provider.GetTopRatedShows(ctx, page)
	case "airing_today":
		result, err = s.provider.GetAiringToday(ctx, page)
	default:
		result, err = s.provider.GetPopularShows(ctx, page)
	}
	if err != nil {
		return nil, err
	}
	return s.annotate(result), nil
}

func (s *SyncService) annotate(result *provider.SearchResult) *SearchPage {
	page := &SearchPage{
		Page:         result.Page,
		TotalResults: result.TotalResults,
		TotalPages:   result.TotalPages,
		Results:      make([]AnnotatedShow, 0, len(result.Results)),
	}
	for _, summary := range result.Results {
		page.Results = append(page.Results, AnnotatedShow{
			ShowSummary: summary,
			PosterURL:   s.provider.ImageURL(summary.PosterPath, provider.ImagePoster, provider.SizeMedium),
			BackdropURL: s.provider.ImageURL(summary.BackdropPath, provider.ImageBackdrop, provider.SizeMedium),
		})
	}
	return page
}
