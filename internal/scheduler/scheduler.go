// Package scheduler runs the periodic watchlist scan.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"signalDesk/internal/app"
	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

// Evaluator produces a classified report for one ticker.
type Evaluator interface {
	Evaluate(ctx context.Context, ticker string, mode domain.Mode, userID string, position *domain.UserPosition) (*app.Report, error)
}

// AlertEvaluator runs the alert gate for one user.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, result *domain.AnalysisResult, userID string) (*domain.AlertEvent, error)
}

// Config describes the scan job.
type Config struct {
	Spec      string // cron spec with seconds field, e.g. "0 */15 * * * *"
	Watchlist []string
	Mode      domain.Mode
	UserIDs   []string
	Timeout   time.Duration // Per-scan deadline; defaults to 2 minutes
}

// ScanSummary reports one pass over the watchlist.
type ScanSummary struct {
	Reports []*app.Report
	Alerts  []*domain.AlertEvent
	Failed  map[string]error
}

// Scheduler manages the cron job.
type Scheduler struct {
	cron      *cron.Cron
	cfg       Config
	evaluator Evaluator
	alerts    AlertEvaluator
	logger    ports.Logger
	ctx       context.Context

	mu      sync.Mutex // Serialises scans
	running bool
}

// New creates a Scheduler. alerts may be nil. ctx bounds every scan.
func New(ctx context.Context, cfg Config, evaluator Evaluator, alerts AlertEvaluator, logger ports.Logger) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		cfg:       cfg,
		evaluator: evaluator,
		alerts:    alerts,
		logger:    logger,
		ctx:       ctx,
	}
}

// Register adds the scan job. It does not start the scheduler.
func (s *Scheduler) Register() error {
	if len(s.cfg.Watchlist) == 0 {
		return fmt.Errorf("register scan task: %w: empty watchlist", ports.ErrConfigurationError)
	}
	if _, err := s.cron.AddFunc(s.cfg.Spec, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w: %w", ports.ErrConfigurationError, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "Scheduler started", map[string]interface{}{"spec": s.cfg.Spec, "watchlist": len(s.cfg.Watchlist)})
}

// Stop stops the scheduler and waits for a running scan to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn(ctx, "Scheduler stop timed out with a scan still running")
	}
	s.logger.Info(ctx, "Scheduler stopped")
}

// RunNow executes one scan immediately.
func (s *Scheduler) RunNow(ctx context.Context) *ScanSummary {
	return s.scan(ctx)
}

func (s *Scheduler) scanTask() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn(s.ctx, "Previous scan still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.scan(s.ctx)
}

func (s *Scheduler) scan(parent context.Context) *ScanSummary {
	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()

	summary := &ScanSummary{Failed: map[string]error{}}
	for _, ticker := range s.cfg.Watchlist {
		if ctx.Err() != nil {
			summary.Failed[ticker] = ctx.Err()
			continue
		}
		rep, err := s.evaluator.Evaluate(ctx, ticker, s.cfg.Mode, "", nil)
		if err != nil {
			summary.Failed[ticker] = err
			s.logger.Error(ctx, err, "Scan analysis failed", map[string]interface{}{"ticker": ticker})
			continue
		}
		summary.Reports = append(summary.Reports, rep)

		if s.alerts == nil {
			continue
		}
		for _, user := range s.cfg.UserIDs {
			evt, err := s.alerts.Evaluate(ctx, rep.Analysis, user)
			if err != nil {
				s.logger.Error(ctx, err, "Scan alert evaluation failed", map[string]interface{}{"ticker": ticker, "user": user})
				continue
			}
			if evt != nil {
				summary.Alerts = append(summary.Alerts, evt)
			}
		}
	}
	s.logger.Info(ctx, "Watchlist scan complete", map[string]interface{}{
		"analysed": len(summary.Reports), "failed": len(summary.Failed), "alerts": len(summary.Alerts),
	})
	return summary
}
