// Package middleware provides shared gin middleware. Identity resolution is
// header-based: the authenticating proxy in front of the service supplies
// the acting user's id, and this layer only carries it into the request
// context.
package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

const (
	// ActorHeader carries the authenticated user id set by the edge proxy.
	ActorHeader = "X-User-ID"

	actorKey = "actor_id"
)

// Identity copies the actor id from the request header into the gin context.
// An absent header leaves the actor empty; routes that require one gate on
// RequireActor.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, c.GetHeader(ActorHeader))
		c.Next()
	}
}

// RequireActor aborts the request with a not-authenticated response when no
// actor id is present.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorID(c) == "" {
			apperrors.Respond(c, apperrors.NotAuthenticated("http.require_actor"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorID returns the acting user's id for the request, or "" when the
// request is anonymous.
func ActorID(c *gin.Context) string {
	return c.GetString(actorKey)
}
