// Package provider implements the read-only client for the external show
// catalog (TMDB). It exposes search, detail, and discovery lookups plus
// image URL composition; all persistence stays with the caller.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/watchdeck/watchdeck/internal/config"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

// Client handles all catalog provider API interactions.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	maxRetries   int
	logger       hclog.Logger
	httpClient   *http.Client
}

// NewClient creates a provider client from catalog configuration.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		imageBaseURL: cfg.ImageBaseURL,
		maxRetries:   cfg.MaxRetries,
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   "catalog-provider",
			Level:  hclog.LevelFromString(os.Getenv("LOG_LEVEL")),
			Output: os.Stderr,
		}),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// makeRequest performs a GET against the provider API and decodes the JSON
// response into result. Timeouts are retried a bounded number of times; the
// final failure is surfaced as an external provider error.
func (c *Client) makeRequest(ctx context.Context, op, endpoint string, params map[string]string, result interface{}) error {
	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return apperrors.ExternalProvider(op, err)
	}

	q := reqURL.Query()
	q.Set("api_key", c.apiKey)
	for key, value := range params {
		q.Set(key, value)
	}
	reqURL.RawQuery = q.Encode()

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
		if err != nil {
			return err
		}

		c.logger.Debug("catalog provider request", "endpoint", endpoint)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("provider returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		return nil
	}

	err = retry.Do(
		attempt,
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// Only transient timeouts are worth a second attempt; API-level
			// failures and decode errors are final.
			netErr, ok := err.(interface{ Timeout() bool })
			return ok && netErr.Timeout()
		}),
	)
	if err != nil {
		c.logger.Warn("catalog provider request failed", "endpoint", endpoint, "error", err)
		return apperrors.ExternalProvider(op, err)
	}

	return nil
}

// SearchShows queries the provider's show search endpoint.
func (c *Client) SearchShows(ctx context.Context, query string, page int) (*SearchResult, error) {
	var result SearchResult
	err := c.makeRequest(ctx, "provider.search", "/search/tv", map[string]string{
		"query": query,
		"page":  strconv.Itoa(page),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetShowDetails fetches the full detail payload for a show.
func (c *Client) GetShowDetails(ctx context.Context, externalID string) (*ShowDetails, error) {
	var result ShowDetails
	err := c.makeRequest(ctx, "provider.details", "/tv/"+externalID, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSimilarShows fetches shows similar to the given one.
func (c *Client) GetSimilarShows(ctx context.Context, externalID string, page int) (*SearchResult, error) {
	var result SearchResult
	err := c.makeRequest(ctx, "provider.similar", "/tv/"+externalID+"/similar", map[string]string{
		"page": strconv.Itoa(page),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPopularShows fetches the current popular shows page.
func (c *Client) GetPopularShows(ctx context.Context, page int) (*SearchResult, error) {
	var result SearchResult
	err := c.makeRequest(ctx, "provider.popular", "/tv/popular", map[string]string{
		"page": strconv.Itoa(page),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTrendingShows fetches trending shows for the given window ("day" or "week").
func (c *Client) GetTrendingShows(ctx context.Context, timeWindow string) (*SearchResult, error) {
	if timeWindow != "day" {
		timeWindow = "week"
	}
	var result SearchResult
	err := c.makeRequest(ctx, "provider.trending", "/trending/tv/"+timeWindow, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTopRatedShows fetches the top rated shows page.
func (c *Client) GetTopRatedShows(ctx context.Context, page int) (*SearchResult, error) {
	var result SearchResult
	err := c.makeRequest(ctx, "provider.top_rated", "/tv/top_rated", map[string]string{
		"page": strconv.Itoa(page),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAiringToday fetches shows airing today.
func (c *Client) GetAiringToday(ctx context.Context, page int) (*SearchResult, error) {
	var result SearchResult
	err := c.makeRequest(ctx, "provider.airing_today", "/tv/airing_today", map[string]string{
		"page": strconv.Itoa(page),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSeasonDetails fetches details for a TV season.
func (c *Client) GetSeasonDetails(ctx context.Context, externalID string, seasonNumber int) (*SeasonDetails, error) {
	var result SeasonDetails
	err := c.makeRequest(ctx, "provider.season",
		fmt.Sprintf("/tv/%s/season/%d", externalID, seasonNumber), nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEpisodeDetails fetches details for a specific episode.
func (c *Client) GetEpisodeDetails(ctx context.Context, externalID string, seasonNumber, episodeNumber int) (*EpisodeDetails, error) {
	var result EpisodeDetails
	err := c.makeRequest(ctx, "provider.episode",
		fmt.Sprintf("/tv/%s/season/%d/episode/%d", externalID, seasonNumber, episodeNumber), nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
