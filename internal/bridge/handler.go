package bridge

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

// Handler exposes the analyzer as the background message endpoint.
type Handler struct {
	analyzer ports.BatchAnalyzer
	logger   *slog.Logger
}

// NewHandler builds the endpoint around an analyzer.
func NewHandler(analyzer ports.BatchAnalyzer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{analyzer: analyzer, logger: logger}
}

// Routes builds the gin engine serving the endpoint.
func (h *Handler) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true

	r.POST("/analyze", h.Analyze)
	return r
}

// Analyze answers one analyzeFastBatch message. Backend failures are carried
// in the envelope with status 200; only malformed messages get a 400.
func (h *Handler) Analyze(c *gin.Context) {
	var req domain.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.BatchResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Action != domain.ActionAnalyzeFastBatch {
		c.JSON(http.StatusBadRequest, domain.BatchResponse{Error: "unsupported action"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusOK, domain.BatchResponse{})
		return
	}

	resp := h.analyzer.AnalyzeBatch(c.Request.Context(), req)
	h.logger.Debug("analyze served", "items", len(req.Items), "error", resp.Error)
	c.JSON(http.StatusOK, resp)
}
