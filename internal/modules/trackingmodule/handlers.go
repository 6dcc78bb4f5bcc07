package trackingmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/middleware"
)

// Handlers exposes subscriptions and episode progress over HTTP.
type Handlers struct {
	subscriptions *SubscriptionService
	progress      *ProgressTracker
}

// NewHandlers creates the tracking HTTP handlers.
func NewHandlers(subscriptions *SubscriptionService, progress *ProgressTracker) *Handlers {
	return &Handlers{subscriptions: subscriptions, progress: progress}
}

// RegisterRoutes registers tracking routes. Everything here is personal
// state, so an actor is required throughout.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	shows := router.Group("/api/shows")
	shows.Use(middleware.RequireActor())
	{
		shows.GET("", h.listSubscriptions)
		shows.POST("", h.subscribe)
		shows.DELETE("/:externalId", h.unsubscribe)
	}

	progress := router.Group("/api/progress")
	progress.Use(middleware.RequireActor())
	{
		progress.GET("/:externalId", h.showProgress)
		progress.POST("/:externalId", h.markEpisode)
	}
}

type subscribeRequest struct {
	ExternalID string                      `json:"external_id" binding:"required"`
	Status     database.SubscriptionStatus `json:"status"`
}

func (h *Handlers) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondValidation(c, "external_id is required", "external_id")
		return
	}

	subscription, err := h.subscriptions.Subscribe(c.Request.Context(), middleware.ActorID(c), req.ExternalID, req.Status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, subscription)
}

func (h *Handlers) unsubscribe(c *gin.Context) {
	err := h.subscriptions.Unsubscribe(c.Request.Context(), middleware.ActorID(c), c.Param("externalId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

func (h *Handlers) listSubscriptions(c *gin.Context) {
	status := database.SubscriptionStatus(c.Query("status"))

	subscriptions, err := h.subscriptions.ListMine(c.Request.Context(), middleware.ActorID(c), status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shows": subscriptions})
}

type markEpisodeRequest struct {
	Season  int   `json:"season"`
	Episode int   `json:"episode" binding:"required"`
	Watched *bool `json:"watched"`
}

func (h *Handlers) markEpisode(c *gin.Context) {
	var req markEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondValidation(c, "season and episode are required", "body")
		return
	}

	// Watched defaults to true; a mark request is a watch unless stated.
	watched := true
	if req.Watched != nil {
		watched = *req.Watched
	}

	progress, err := h.progress.MarkEpisode(c.Request.Context(), middleware.ActorID(c),
		c.Param("externalId"), req.Season, req.Episode, watched)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *Handlers) showProgress(c *gin.Context) {
	progress, err := h.progress.ShowProgress(c.Request.Context(), middleware.ActorID(c), c.Param("externalId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"episodes": progress})
}
