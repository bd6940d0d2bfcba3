package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripweaver/services"
)

func (h *Handler) document(c *gin.Context) (services.Document, bool) {
	sess, ok := h.session(c)
	if !ok {
		return services.Document{}, false
	}
	doc, ok := services.DocumentFromSnapshot(sess.Snapshot())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No itinerary has been generated for this session"})
		return services.Document{}, false
	}
	return doc, true
}

func (h *Handler) DownloadHTML(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}

	body, err := services.RenderHTML(doc)
	if err != nil {
		log.Printf("❌ HTML rendering failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render itinerary"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

func (h *Handler) DownloadPDF(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}

	pdfBytes, err := services.RenderPDF(doc)
	if err != nil {
		log.Printf("❌ PDF generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename(doc.Destination)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// Generations lists recent generation log entries.
func (h *Handler) Generations(c *gin.Context) {
	if h.genLog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Generation log is disabled (DATABASE_URL not set)"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.genLog.RecentGenerations(c.Request.Context(), limit)
	if err != nil {
		log.Printf("❌ Failed to read generation log: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read generation log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"generations": entries})
}

func (h *Handler) Health(c *gin.Context) {
	dbStatus := "disabled"
	if h.genLog != nil {
		dbStatus = "ok"
		if err := h.genLog.Ping(c.Request.Context()); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "Tripweaver API",
		"database": dbStatus,
		"sessions": h.sessions.Count(),
	})
}
