package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/http/middleware"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
	"github.com/medscribe-team/clinical-scribe/pkg/jwt"
)

// Router holds all handlers
type Router struct {
	cfg                 *config.Config
	conversationHandler *Conversation
	summaryHandler      *Summary
	jwtManager          *jwt.Manager
}

// NewRouter creates a new router with all handlers. jwtManager may be nil to
// leave the API unguarded.
func NewRouter(cfg *config.Config, conversationHandler *Conversation, summaryHandler *Summary, jwtManager *jwt.Manager) *Router {
	return &Router{
		cfg:                 cfg,
		conversationHandler: conversationHandler,
		summaryHandler:      summaryHandler,
		jwtManager:          jwtManager,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")
	if rt.jwtManager != nil {
		v1.Use(middleware.EchoAuth(rt.jwtManager))
	}

	rt.setupConversationRoutes(v1)
	rt.setupSummaryRoutes(v1)
}

// setupConversationRoutes configures transcription routes
func (rt *Router) setupConversationRoutes(g *echo.Group) {
	conversations := g.Group("/conversations")

	if rt.conversationHandler != nil {
		conversations.POST("", rt.conversationHandler.Create)
		conversations.GET("", rt.conversationHandler.List)
		conversations.GET("/:name/transcript", rt.conversationHandler.GetTranscript)
		conversations.GET("/:name/download-url", rt.conversationHandler.GetDownloadURL)
	} else {
		conversations.POST("", rt.notImplemented)
		conversations.GET("", rt.notImplemented)
		conversations.GET("/:name/transcript", rt.notImplemented)
		conversations.GET("/:name/download-url", rt.notImplemented)
	}
}

// setupSummaryRoutes configures summarization routes
func (rt *Router) setupSummaryRoutes(g *echo.Group) {
	if rt.summaryHandler != nil {
		g.POST("/summaries", rt.summaryHandler.Create)
	} else {
		g.POST("/summaries", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
