// Package api exposes simulations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/metrics"
	"prop-simulator/internal/orchestrator"
	"prop-simulator/internal/storage"
	"prop-simulator/internal/tradedata"
)

// DefaultListLimit is used by GET /api/runs without ?limit.
const DefaultListLimit = 50

// maxUploadBytes bounds an uploaded trade CSV.
const maxUploadBytes = 32 << 20

// ErrFilePathNotAllowed rejects server-side file paths in remote requests.
var ErrFilePathNotAllowed = fmt.Errorf("%w: csv_file paths are not accepted over HTTP, upload the file instead", domain.ErrInvalidConfig)

// Simulator runs one simulation request.
type Simulator interface {
	Run(ctx context.Context, cfg domain.SimulationConfig) (*orchestrator.Result, error)
}

// Handler serves the simulation API.
type Handler struct {
	sim    Simulator
	runs   storage.RunStore // nil disables run listing
	logger *log.Logger
}

// NewHandler creates a new API handler.
func NewHandler(sim Simulator, runs storage.RunStore, logger *log.Logger) *Handler {
	return &Handler{sim: sim, runs: runs, logger: logger}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.POST("/simulate", h.Simulate)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
	}
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

// SimulateResponse is the body returned by POST /api/simulate.
type SimulateResponse struct {
	Cached bool                  `json:"cached"`
	Run    *domain.SimulationRun `json:"run"`
}

// Simulate runs a simulation. Accepts either a JSON body or a multipart form
// with a "config" JSON field and an optional "csv_file" upload.
func (h *Handler) Simulate(c *gin.Context) {
	cfg, err := h.bindConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.sim.Run(c.Request.Context(), cfg)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logf("simulate: %v", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SimulateResponse{Cached: res.Cached, Run: res.Run})
}

// ListRuns returns stored runs, newest first.
func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run storage is not configured"})
		return
	}

	limit := DefaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		h.logf("list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*domain.SimulationRun{}
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun returns one stored run.
func (h *Handler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run storage is not configured"})
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		h.logf("get run: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) bindConfig(c *gin.Context) (domain.SimulationConfig, error) {
	var cfg domain.SimulationConfig

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
		if cfg.CSVFile != "" {
			return cfg, ErrFilePathNotAllowed
		}
		return cfg, nil
	}

	raw := c.PostForm("config")
	if raw == "" {
		return cfg, errors.New("missing config form field")
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if cfg.CSVFile != "" {
		return cfg, ErrFilePathNotAllowed
	}

	fh, err := c.FormFile("csv_file")
	if errors.Is(err, http.ErrMissingFile) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read csv_file: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return cfg, fmt.Errorf("open csv_file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return cfg, fmt.Errorf("read csv_file: %w", err)
	}
	if len(data) > maxUploadBytes {
		return cfg, fmt.Errorf("csv_file exceeds %d bytes", maxUploadBytes)
	}
	cfg.CSVData = string(data)
	return cfg, nil
}

// statusFor maps orchestrator errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, tradedata.ErrMalformedRecord),
		errors.Is(err, tradedata.ErrNoTrades):
		return http.StatusBadRequest
	case errors.Is(err, metrics.ErrNoTrials):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
