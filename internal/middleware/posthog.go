package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	apiRoutePrefix   = "/api/v1"
	issueRoutePrefix = "/issues/:id"
)

// untrackedPaths are never reported to PostHog.
var untrackedPaths = map[string]bool{
	"/health": true,
}

// PosthogMiddleware reports every successful authenticated request as a PostHog event named
// after its route: POST /api/v1/issues/:id/accept becomes "post_issues_id_accept".
// Requests on a single issue carry its id, and the caller's role once ActorMiddleware ran.
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !posthogClient.IsInitialized() || untrackedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}
		eventName := routeEventName(c.Request.Method, c.FullPath())
		if eventName == "" {
			// unmatched route
			return
		}
		posthogClient.Enqueue(userID, eventName, requestProperties(c))
	}
}

func routeEventName(method, route string) string {
	if route == "" {
		return ""
	}
	parts := []string{strings.ToLower(method)}
	for _, seg := range strings.Split(strings.TrimPrefix(route, apiRoutePrefix), "/") {
		seg = strings.TrimPrefix(seg, ":")
		if seg == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(seg, "-", "_"))
	}
	return strings.Join(parts, "_")
}

func requestProperties(c *gin.Context) map[string]any {
	route := c.FullPath()
	props := map[string]any{
		"method":      c.Request.Method,
		"route":       route,
		"status_code": c.Writer.Status(),
	}
	if strings.HasPrefix(strings.TrimPrefix(route, apiRoutePrefix), issueRoutePrefix) {
		props["issue_id"] = c.Param("id")
	}
	if actor, ok := GetActorFromContext(c); ok {
		props["role"] = string(actor.Role)
	}
	return props
}

// PosthogEvent sends a custom event for the authenticated user from inside a handler.
func PosthogEvent(c *gin.Context, posthogClient *utils.PosthogClientWrapper, eventName string, properties map[string]any) {
	if !posthogClient.IsInitialized() {
		return
	}
	userID, exists := GetUserIDFromContext(c)
	if !exists {
		return
	}
	if properties == nil {
		properties = make(map[string]any)
	}
	properties["method"] = c.Request.Method
	properties["route"] = c.FullPath()
	posthogClient.Enqueue(userID, eventName, properties)
}
