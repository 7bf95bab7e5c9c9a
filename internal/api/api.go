package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser returns the authenticated user id stored by the auth
// middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// viewerID returns the requesting user as an optional viewer reference for
// viewer-relative reads.
func viewerID(c *gin.Context) *uuid.UUID {
	if id, ok := currentUser(c); ok {
		return &id
	}
	return nil
}
