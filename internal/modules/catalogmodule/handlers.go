package catalogmodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

// Handlers exposes the catalog over HTTP.
type Handlers struct {
	sync *SyncService
}

// NewHandlers creates the catalog HTTP handlers.
func NewHandlers(sync *SyncService) *Handlers {
	return &Handlers{sync: sync}
}

// RegisterRoutes registers catalog routes. Catalog reads are public; nothing
// here mutates user state.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	catalog := router.Group("/api/catalog")
	{
		catalog.GET("/search", h.searchShows)
		catalog.GET("/discover", h.discoverShows)
		catalog.GET("/shows/:externalId", h.getShow)
		catalog.GET("/shows/:externalId/similar", h.similarShows)
	}
}

// getShow resolves an external id to the canonical show, fetching from the
// provider on first reference.
func (h *Handlers) getShow(c *gin.Context) {
	externalID := c.Param("externalId")

	show, err := h.sync.GetOrFetchShow(c.Request.Context(), externalID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, show)
}

func (h *Handlers) searchShows(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		apperrors.RespondValidation(c, "query parameter is required", "query")
		return
	}

	page, err := h.sync.SearchShows(c.Request.Context(), query, pageParam(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handlers) discoverShows(c *gin.Context) {
	kind := c.DefaultQuery("kind", "popular")

	page, err := h.sync.DiscoverShows(c.Request.Context(), kind, pageParam(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handlers) similarShows(c *gin.Context) {
	externalID := c.Param("externalId")

	page, err := h.sync.SimilarShows(c.Request.Context(), externalID, pageParam(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
