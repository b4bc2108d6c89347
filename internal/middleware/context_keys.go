package middleware

import (
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// userIDKey is the key used to store the authenticated user's ID in the request context.
const userIDKey = contextKey("userID")

// actorKey is the key used to store the resolved domain.Actor in the Gin context.
const actorKey = contextKey("actor")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// GetActorFromContext retrieves the actor resolved by ActorMiddleware.
func GetActorFromContext(c *gin.Context) (domain.Actor, bool) {
	val, exists := c.Get(string(actorKey))
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := val.(domain.Actor)
	return actor, ok
}
