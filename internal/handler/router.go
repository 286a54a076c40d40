package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"gotimer/backend/internal/auth"
	"gotimer/backend/internal/logging"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Origins allowed for CORS. Empty allows any origin.
	Origins   []string
	StaticDir string
	// Swagger mounts the API docs under /swagger.
	Swagger bool
}

// NewRouter builds the gin engine with all routes and middlewares.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(
		logging.RequestLogger(),
		gin.CustomRecovery(recoverInternal),
		corsMiddleware(opts.Origins),
		h.metrics.Middleware(),
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", h.metrics.Handler())
	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group("/api")
	api.Use(auth.LoadSession(h.sessions))
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
			authRoutes.POST("/guest", h.GuestLogin)
			authRoutes.POST("/logout", h.Logout)
			authRoutes.GET("/me", h.Me)
		}

		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)
		api.POST("/change-password", h.ChangePassword)
		api.DELETE("/delete-account", h.DeleteAccount)

		gameRoutes := api.Group("/games")
		gameRoutes.Use(auth.RequireSession())
		{
			gameRoutes.GET("", h.ListGames)
			gameRoutes.POST("/new", h.CreateGame)
			gameRoutes.POST("/save", h.SaveGame)
			gameRoutes.GET("/:id", h.GetGame)
			gameRoutes.POST("/:id/complete", h.CompleteGame)
			gameRoutes.GET("/:id/moves", h.ListMoves)
			gameRoutes.POST("/:id/moves", h.SaveMove)
		}

		api.GET("/stats", auth.RequireSession(), h.GetStats)
	}

	router.NoRoute(staticFallback(opts.StaticDir))
	return router
}

func recoverInternal(c *gin.Context, recovered any) {
	log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("panic recovered")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	} else {
		cfg.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(cfg)
}
