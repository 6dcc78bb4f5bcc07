package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchdeck/watchdeck/internal/config"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

func testClient(baseURL string) *Client {
	return NewClient(config.CatalogConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		ImageBaseURL:   "https://image.tmdb.org/t/p",
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
	})
}

func TestClientRequests(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a successful detail response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/tv/1399", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":1399,"name":"Game of Thrones","vote_average":8.4,"number_of_seasons":8}`))
		}))
		defer srv.Close()

		details, err := testClient(srv.URL).GetShowDetails(ctx, "1399")
		require.NoError(t, err)
		assert.Equal(t, "Game of Thrones", details.Name)
		assert.Equal(t, 8.4, details.VoteAverage)
		assert.Equal(t, 8, details.NumberOfSeasons)
	})

	t.Run("non-200 status is an external provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).GetShowDetails(ctx, "1399")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindExternalProvider, apperrors.KindOf(err))
	})

	t.Run("malformed body is an external provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).SearchShows(ctx, "dark", 1)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindExternalProvider, apperrors.KindOf(err))
	})

	t.Run("search forwards query and page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/tv", r.URL.Path)
			assert.Equal(t, "dark", r.URL.Query().Get("query"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			w.Write([]byte(`{"page":2,"total_results":21,"total_pages":2,"results":[{"id":70523,"name":"Dark"}]}`))
		}))
		defer srv.Close()

		result, err := testClient(srv.URL).SearchShows(ctx, "dark", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Page)
		require.Len(t, result.Results, 1)
		assert.Equal(t, "Dark", result.Results[0].Name)
	})
}

func TestImageURL(t *testing.T) {
	client := testClient("https://api.themoviedb.org/3")

	cases := []struct {
		name  string
		path  string
		class ImageClass
		size  ImageSize
		want  string
	}{
		{"poster large", "/p.jpg", ImagePoster, SizeLarge, "https://image.tmdb.org/t/p/w500/p.jpg"},
		{"poster medium", "/p.jpg", ImagePoster, SizeMedium, "https://image.tmdb.org/t/p/w342/p.jpg"},
		{"poster small", "/p.jpg", ImagePoster, SizeSmall, "https://image.tmdb.org/t/p/w185/p.jpg"},
		{"backdrop large", "/b.jpg", ImageBackdrop, SizeLarge, "https://image.tmdb.org/t/p/w1280/b.jpg"},
		{"backdrop medium", "/b.jpg", ImageBackdrop, SizeMedium, "https://image.tmdb.org/t/p/w780/b.jpg"},
		{"profile large", "/f.jpg", ImageProfile, SizeLarge, "https://image.tmdb.org/t/p/h632/f.jpg"},
		{"original passes through", "/o.jpg", ImageBackdrop, SizeOriginal, "https://image.tmdb.org/t/p/original/o.jpg"},
		{"empty path", "", ImagePoster, SizeLarge, ""},
		{"unknown size falls back to medium", "/p.jpg", ImagePoster, ImageSize("huge"), "https://image.tmdb.org/t/p/w342/p.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, client.ImageURL(tc.path, tc.class, tc.size))
		})
	}
}
