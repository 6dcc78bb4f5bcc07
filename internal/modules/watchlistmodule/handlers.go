package watchlistmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watchdeck/watchdeck/internal/database"
	apperrors "github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/middleware"
)

// Handlers exposes watchlist operations over HTTP.
type Handlers struct {
	service *Service
}

// NewHandlers creates the watchlist HTTP handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers watchlist routes. Reading a single watchlist is
// open to anonymous requests so public lists stay shareable; everything
// else requires an actor.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	watchlists := router.Group("/api/watchlists")
	{
		watchlists.GET("/:id", h.getWatchlist)

		authed := watchlists.Group("")
		authed.Use(middleware.RequireActor())
		{
			authed.GET("", h.listMine)
			authed.POST("", h.createWatchlist)
			authed.POST("/default", h.createDefault)
			authed.PATCH("/:id", h.updateWatchlist)
			authed.DELETE("/:id", h.deleteWatchlist)
			authed.POST("/:id/items", h.addItem)
			authed.DELETE("/:id/items/:itemId", h.removeItem)
			authed.POST("/:id/members", h.addMember)
			authed.DELETE("/:id/members/:userId", h.removeMember)
		}
	}
}

func (h *Handlers) listMine(c *gin.Context) {
	summaries, err := h.service.ListMine(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlists": summaries})
}

func (h *Handlers) createWatchlist(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondValidation(c, "invalid request body", "body")
		return
	}

	watchlist, err := h.service.Create(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, watchlist)
}

func (h *Handlers) createDefault(c *gin.Context) {
	watchlist, err := h.service.CreateDefault(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, watchlist)
}

func (h *Handlers) getWatchlist(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handlers) updateWatchlist(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondValidation(c, "invalid request body", "body")
		return
	}

	watchlist, err := h.service.Update(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, watchlist)
}

func (h *Handlers) deleteWatchlist(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type addItemRequest struct {
	ExternalID string `json:"external_id" binding:"required"`
}

func (h *Handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondValidation(c, "external_id is required", "external_id")
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.ExternalID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handlers) removeItem(c *gin.Context) {
	err := h.service.RemoveItem(c.Request.Context(), middleware.ActorID(c), c.Param("id"), c.Param("itemId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

type addMemberRequest struct {
	UserID string                  `json:"user_id" binding:"required"`
	Role   database.MembershipRole `json:"role" binding:"required"`
}

func (h *Handlers) addMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondValidation(c, "user_id and role are required", "body")
		return
	}

	membership, err := h.service.AddMember(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.UserID, req.Role)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

func (h *Handlers) removeMember(c *gin.Context) {
	err := h.service.RemoveMember(c.Request.Context(), middleware.ActorID(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
