// Package handlers exposes the planner over HTTP.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripweaver/database"
	"tripweaver/planner"
)

// GenerationLog is the read side of the generation log.
type GenerationLog interface {
	Ping(ctx context.Context) error
	RecentGenerations(ctx context.Context, limit int) ([]database.Generation, error)
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	planner  *planner.Planner
	sessions *SessionStore
	genLog   GenerationLog
}

// New wires a Handler. genLog may be nil when no database is configured.
func New(p *planner.Planner, sessions *SessionStore, genLog GenerationLog) *Handler {
	return &Handler{planner: p, sessions: sessions, genLog: genLog}
}

// Register mounts the routes on api. limit guards the endpoints that call a
// generation provider; pass nil to disable it.
func (h *Handler) Register(api *gin.RouterGroup, limit gin.HandlerFunc) {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	api.GET("/health", h.Health)
	api.GET("/dates", h.Dates)
	api.GET("/generations", h.Generations)

	s := api.Group("/sessions")
	{
		s.POST("", h.CreateSession)
		s.GET("/:id", h.GetSession)
		s.POST("/:id/generate", limit, h.Generate)
		s.POST("/:id/refine", limit, h.Refine)
		s.POST("/:id/replan", limit, h.Replan)
		s.GET("/:id/html", h.DownloadHTML)
		s.GET("/:id/pdf", h.DownloadPDF)
	}
}

// session resolves :id or writes 404.
func (h *Handler) session(c *gin.Context) (*planner.Session, bool) {
	sess, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return sess, true
}

// respondError maps planner errors onto status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, planner.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": detail(err, planner.ErrValidation)})
	case errors.Is(err, planner.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, planner.ErrStale):
		c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer request: " + detail(err, planner.ErrStale)})
	case planner.IsGenerationFailure(err):
		log.Printf("❌ Generation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed, please retry: " + err.Error()})
	default:
		log.Printf("❌ Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// detail drops the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != "" {
		return trimmed
	}
	return msg
}
