// Package httpapi exposes the analyzer over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"signalDesk/internal/app"
	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

// maxBatch caps tickers per batch request.
const maxBatch = 25

// Analyzer is the subset of app.Analyzer the handlers use.
type Analyzer interface {
	AnalyzeTicker(ctx context.Context, ticker string, mode domain.Mode, position *domain.UserPosition) (*domain.AnalysisResult, error)
	AnalyzeMultiple(ctx context.Context, tickers []string, mode domain.Mode, positions map[string]*domain.UserPosition) ([]*domain.AnalysisResult, error)
	Evaluate(ctx context.Context, ticker string, mode domain.Mode, userID string, position *domain.UserPosition) (*app.Report, error)
}

// CacheInvalidator drops cached market data for a ticker.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ticker string) error
}

// Handler serves the JSON API.
type Handler struct {
	analyzer Analyzer
	signals  ports.SignalStore
	prefs    ports.PreferenceStore
	cache    CacheInvalidator
	logger   ports.Logger
}

// NewHandler wires the handlers. signals, prefs and cache may be nil; their routes then answer 501.
func NewHandler(analyzer Analyzer, signals ports.SignalStore, prefs ports.PreferenceStore, cache CacheInvalidator, logger ports.Logger) *Handler {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Handler{analyzer: analyzer, signals: signals, prefs: prefs, cache: cache, logger: logger}
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

type analyzeRequest struct {
	Ticker   string               `json:"ticker" binding:"required"`
	Mode     string               `json:"mode"`
	UserID   string               `json:"userId"`
	Position *domain.UserPosition `json:"position"`
}

type batchRequest struct {
	Tickers   []string                        `json:"tickers" binding:"required"`
	Mode      string                          `json:"mode"`
	Positions map[string]*domain.UserPosition `json:"positions"`
}

type preferenceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type modeResponse struct {
	Mode          domain.Mode         `json:"mode"`
	DisplayName   string              `json:"displayName"`
	Description   string              `json:"description"`
	Timeframes    []string            `json:"timeframes"`
	Weights       domain.WeightVector `json:"weights"`
	BuyThreshold  float64             `json:"buyThreshold"`
	SellThreshold float64             `json:"sellThreshold"`
}

// Health answers liveness probes.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Modes lists the analysis modes and their weights.
func (h *Handler) Modes(c *gin.Context) {
	out := make([]modeResponse, 0, len(domain.Modes))
	for _, m := range domain.Modes {
		cfg := domain.GetModeConfig(m)
		out = append(out, modeResponse{
			Mode:          cfg.Mode,
			DisplayName:   cfg.DisplayName,
			Description:   cfg.Description,
			Timeframes:    cfg.Timeframes,
			Weights:       cfg.Weights,
			BuyThreshold:  cfg.BuyThreshold,
			SellThreshold: cfg.SellThreshold,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Analyze runs one analysis.
//
// POST /api/v1/analyze {"ticker":"BTC","mode":"swing","position":{...}}
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	mode, ok := parseMode(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown mode: " + req.Mode})
		return
	}
	res, err := h.analyzer.AnalyzeTicker(c.Request.Context(), req.Ticker, mode, req.Position)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AnalyzeBatch analyses several tickers in one mode; results keep request order.
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if len(req.Tickers) == 0 || len(req.Tickers) > maxBatch {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "tickers must contain between 1 and " + strconv.Itoa(maxBatch) + " entries"})
		return
	}
	mode, ok := parseMode(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown mode: " + req.Mode})
		return
	}
	positions := make(map[string]*domain.UserPosition, len(req.Positions))
	for t, p := range req.Positions {
		positions[domain.NormalizeTicker(t)] = p
	}
	res, err := h.analyzer.AnalyzeMultiple(c.Request.Context(), req.Tickers, mode, positions)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Playbook analyses, classifies and evaluates alerts for the optional user.
func (h *Handler) Playbook(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	mode, ok := parseMode(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown mode: " + req.Mode})
		return
	}
	rep, err := h.analyzer.Evaluate(c.Request.Context(), req.Ticker, mode, req.UserID, req.Position)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// Signals returns recent logged analyses for a ticker.
//
// GET /api/v1/signals/:ticker?limit=20
func (h *Handler) Signals(c *gin.Context) {
	if h.signals == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "signal history is not configured"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 500"})
		return
	}
	res, err := h.signals.RecentSignals(c.Request.Context(), c.Param("ticker"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SetAlertPreference opts a user in or out of alerts.
//
// PUT /api/v1/users/:id/alerts {"enabled":true}
func (h *Handler) SetAlertPreference(c *gin.Context) {
	if h.prefs == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "alert preferences are not configured"})
		return
	}
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	userID := c.Param("id")
	if err := h.prefs.SetAlertPreference(c.Request.Context(), userID, *req.Enabled); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "enabled": *req.Enabled})
}

// InvalidateCache drops cached candles and fundamentals for a ticker.
func (h *Handler) InvalidateCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "cache is not configured"})
		return
	}
	if err := h.cache.Invalidate(c.Request.Context(), c.Param("ticker")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseMode(s string) (domain.Mode, bool) {
	if strings.TrimSpace(s) == "" {
		return domain.ModeSwing, true
	}
	return domain.ParseMode(s)
}

// fail maps sentinel errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), err, "Request failed", map[string]interface{}{
			"path": c.FullPath(), "status": status,
		})
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest), errors.Is(err, ports.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrUnsupportedTicker), errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ports.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ports.ErrProviderFailure), errors.Is(err, ports.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs one line per request through ports.Logger.
func requestLogger(logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
