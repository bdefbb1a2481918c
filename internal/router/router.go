package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/handler"
	"github.com/law-cbt/cbt-backend/internal/middleware"
	"github.com/law-cbt/cbt-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session  *handler.SessionHandler
	Question *handler.QuestionHandler
	Note     *handler.NoteHandler
	Law      *handler.LawHandler
	Layout   *handler.LayoutHandler
	System   *handler.SystemHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Submission-Pages", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve exported submissions statically. Filenames are fixed per
	// export, so the copies must not be cached long.
	exportsGroup := router.Group("/exports")
	exportsGroup.Use(middleware.CacheControl(0))
	{
		exportsGroup.Static("/", cfg.ExportDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		// Session state machine and drafts
		api.GET("/session", handlers.Session.GetState)
		api.PUT("/session/answer", handlers.Session.UpdateAnswer)
		api.PUT("/session/memo", handlers.Session.UpdateMemo)
		api.PUT("/session/time", handlers.Session.EditTime)
		api.POST("/session/finish", handlers.Session.Finish)

		// Question document
		api.POST("/question", handlers.Question.Upload)
		api.GET("/question", handlers.Question.Get)

		// Sticky notes
		api.POST("/notes/toggle", handlers.Note.Toggle)
		api.GET("/notes", handlers.Note.List)
		api.DELETE("/notes/:law_id/:location_id", handlers.Note.Remove)
		api.GET("/notes/:law_id/:location_id/jump", handlers.Note.Jump)

		// Law text proxy. Rate limited per IP so a misbehaving panel
		// cannot hammer the upstream statute service.
		lawLimiter := middleware.NewRateLimiter(60, time.Minute)
		api.GET("/laws", lawLimiter.Middleware(), handlers.Law.GetLaw)
		api.GET("/laws/current", handlers.Law.GetCurrent)

		// Panel layout
		api.GET("/layout", handlers.Layout.GetLayout)
		api.PUT("/layout/visible", handlers.Layout.SetVisible)
		api.POST("/layout/rotate", handlers.Layout.Rotate)
		api.PUT("/layout/split", handlers.Layout.SetSplit)

		// Diagnostics
		api.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── WebSocket ─────────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/session/stream", handlers.WS.SessionStream)
	}

	return router
}
