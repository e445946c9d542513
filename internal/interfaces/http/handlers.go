package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/sheet-snapshot/internal/models"
	"github.com/garyjia/sheet-snapshot/internal/report"
	"github.com/garyjia/sheet-snapshot/internal/scheduler"
	"github.com/garyjia/sheet-snapshot/internal/snapshot"
)

const maxRunsLimit = 200

// RunLister reads refresh run history
type RunLister interface {
	ListRecent(report string, limit int) ([]*models.SnapshotRun, error)
}

// StatusProvider reports scheduler job state
type StatusProvider interface {
	Status() []scheduler.JobStatus
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	runs   RunLister
	status StatusProvider
	logger Logger
}

// NewHandlers creates a new Handlers instance. runs and status may be nil.
func NewHandlers(runs RunLister, status StatusProvider, logger Logger) *Handlers {
	return &Handlers{
		runs:   runs,
		status: status,
		logger: logger,
	}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string                `json:"status"`
	Service string                `json:"service"`
	Time    string                `json:"time"`
	Reports []scheduler.JobStatus `json:"reports,omitempty"`
}

// Snapshot serves the current snapshot of one report, re-reading the file
// on every request.
func (h *Handlers) Snapshot(info snapshot.Info) gin.HandlerFunc {
	notFound := report.NotFoundMessage(info.Title)

	return func(c *gin.Context) {
		data, err := snapshot.Load(info.OutputPath)
		switch {
		case err == nil:
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		case errors.Is(err, snapshot.ErrSnapshotNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: notFound})
		default:
			h.logger.Errorw("Failed to load snapshot",
				"report", info.Name,
				"path", info.OutputPath,
				"error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: "Falha ao ler o arquivo JSON de " + info.Title,
			})
		}
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "sheet-snapshot",
		Time:    time.Now().Format(time.RFC3339),
	}
	if h.status != nil {
		resp.Reports = h.status.Status()
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns handles GET /api/runs?report=&limit=
func (h *Handlers) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "run history is disabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListRecent(c.Query("report"), limit)
	if err != nil {
		h.logger.Errorw("Failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
