package api

import (
	"github.com/gin-gonic/gin"
	"github.com/ragbase/console/internal/api/admin"
	"github.com/ragbase/console/internal/api/middleware"
	"github.com/ragbase/console/internal/repository"
	"github.com/ragbase/console/internal/service"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	JWTSecret    string
	AllowOrigins []string
	Logger       *zap.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(
	collectionService *service.CollectionService,
	templateService *service.TemplateService,
	pipelineService *service.PipelineService,
	generationService *service.GenerationService,
	statsService *service.StatsService,
	userRepo *repository.UserRepository,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Console API (requires caller identity)
	handler := admin.NewHandler(collectionService, templateService, pipelineService, generationService, statsService)
	authed := r.Group("")
	authed.Use(middleware.Auth(cfg.JWTSecret, userRepo))
	handler.RegisterRoutes(authed)

	return r
}
