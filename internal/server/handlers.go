// Package server exposes the query service over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"corpusqa/internal/query"
)

// Handler serves the question answering API.
type Handler struct {
	service    *query.Service
	indexPath  string
	chunksPath string
	logger     *slog.Logger
}

// NewHandler creates a Handler. The paths are reported by the health
// endpoint so operators can see which artifacts the service reads.
func NewHandler(service *query.Service, indexPath, chunksPath string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, indexPath: indexPath, chunksPath: chunksPath, logger: logger}
}

type ragRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	FormatJSON *bool  `json:"format_json"`
}

// Rag answers POST /api/rag: retrieve context for the query and generate
// a grounded answer. format_json defaults to true.
func (h *Handler) Rag(c *gin.Context) {
	var req ragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	formatJSON := req.FormatJSON == nil || *req.FormatJSON

	answer, err := h.service.Ask(c.Request.Context(), req.Query, req.TopK, formatJSON)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Reindex answers POST /api/reindex: rebuild the index from the corpus
// and swap it in. Returns 409 when a rebuild is already running.
func (h *Handler) Reindex(c *gin.Context) {
	result, err := h.service.Reindex(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records_total":   result.RecordsTotal,
		"records_kept":    result.RecordsKept,
		"records_dropped": result.RecordsDropped,
		"chunks":          result.Chunks,
		"dimension":       result.Dimension,
		"duration_ms":     result.Duration.Milliseconds(),
	})
}

// Health answers GET /health: 200 when a snapshot is loaded, 503
// otherwise. The payload always describes what is (not) loaded.
func (h *Handler) Health(c *gin.Context) {
	health := h.service.Health()
	status := http.StatusOK
	if !health.OK {
		status = http.StatusServiceUnavailable
	}
	body := gin.H{
		"ok":            health.OK,
		"index_loaded":  health.IndexLoaded,
		"chunks_loaded": health.ChunksLoaded,
		"chunks_count":  health.ChunkCount,
		"index_path":    h.indexPath,
		"chunks_path":   h.chunksPath,
	}
	if !health.BuiltAt.IsZero() {
		body["built_at"] = health.BuiltAt.UTC().Format(time.RFC3339)
	}
	c.JSON(status, body)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	requestID, _ := c.Get("request_id")
	h.logger.Error("request failed",
		"request_id", requestID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err)
	switch {
	case errors.Is(err, query.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, query.ErrIndexUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "index not loaded; run ingestion or POST /api/reindex"})
	case errors.Is(err, query.ErrReindexInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "reindex already in progress"})
	case errors.Is(err, query.ErrGeneration):
		c.JSON(http.StatusBadGateway, gin.H{"error": "answer generation failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// NewRouter assembles the HTTP surface. A non-nil mcp handler is mounted
// at /mcp for streamable MCP clients.
func NewRouter(h *Handler, corsOrigins []string, mcp http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(CORS(corsOrigins))

	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.POST("/rag", h.Rag)
	api.POST("/reindex", h.Reindex)

	if mcp != nil {
		router.Any("/mcp", gin.WrapH(mcp))
	}
	return router
}
