package handlers

import (
	"fmt"
	"net/http"

	"github.com/SscSPs/issue_tracker/cmd/docs"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/middleware"
	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// files serves stored receipt evidence under /files.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	files http.FileSystem,
	analytics *utils.PosthogClientWrapper,
) error {
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	if files != nil {
		r.StaticFS("/files", files)
	}

	api := r.Group("/api/v1")

	// Register public authentication routes
	if err := registerAuthRoutes(api, cfg, services, analytics); err != nil {
		return fmt.Errorf("auth routes: %w", err)
	}
	registerGoogleOAuthRoutes(api, services, analytics)

	if err := setupAPIV1Routes(api, cfg, services, analytics); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the authenticated part of /api/v1 and delegates to specific route registrations
func setupAPIV1Routes(
	api *gin.RouterGroup,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	analytics *utils.PosthogClientWrapper,
) error {
	apiLimiter, err := middleware.NewMemoryLimiter(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("invalid rate limit %q: %w", cfg.RateLimit, err)
	}

	v1 := api.Group("",
		middleware.RateLimit(apiLimiter),
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.PosthogMiddleware(analytics),
	)

	registerProfileRoutes(v1, services.Profile)

	// Roles are resolved per request for every issue endpoint.
	withActor := v1.Group("", middleware.ActorMiddleware(services.Profile))
	RegisterIssueRoutes(withActor, services.Issue, cfg.MaxUploadBytes)
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
