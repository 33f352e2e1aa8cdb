// Package alert decides whether an analysis should notify a user.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"signalDesk/internal/domain"
	"signalDesk/internal/playbook"
	"signalDesk/internal/ports"
)

// DefaultWindow is the deduplication window per (user, ticker, tier).
const DefaultWindow = time.Hour

// Config scopes the alert gate.
type Config struct {
	Ticker   string      // Only this ticker alerts
	Mode     domain.Mode // Only analyses in this mode alert
	Window   time.Duration
	Playbook playbook.Config
}

// Service is a stateless policy gate; dedup state lives in the AlertStore.
type Service struct {
	cfg      Config
	prefs    ports.PreferenceStore
	store    ports.AlertStore
	notifier ports.Notifier
	logger   ports.Logger
	now      func() time.Time
}

// NewService builds the gate. notifier may be nil.
func NewService(cfg Config, prefs ports.PreferenceStore, store ports.AlertStore, notifier ports.Notifier, logger ports.Logger) *Service {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	cfg.Ticker = domain.NormalizeTicker(cfg.Ticker)
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Service{cfg: cfg, prefs: prefs, store: store, notifier: notifier, logger: logger, now: time.Now}
}

// Evaluate returns the emitted event, or nil when any gate rejects the result.
func (s *Service) Evaluate(ctx context.Context, result *domain.AnalysisResult, userID string) (*domain.AlertEvent, error) {
	if result == nil || userID == "" {
		return nil, nil
	}
	if domain.NormalizeTicker(result.Ticker) != s.cfg.Ticker || result.Mode != s.cfg.Mode {
		return nil, nil
	}

	enabled, err := s.prefs.AlertsEnabled(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("alert preference lookup failed: %w", err)
	}
	if !enabled {
		return nil, nil
	}

	pb := playbook.Classify(result, s.cfg.Playbook)
	if !pb.Tier.Alertable() {
		return nil, nil
	}

	dup, err := s.store.HasAlertWithin(ctx, userID, s.cfg.Ticker, pb.Tier, s.cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("alert dedup lookup failed: %w", err)
	}
	if dup {
		s.logger.Debug(ctx, "Alert suppressed by dedup window", map[string]interface{}{
			"user": userID, "ticker": s.cfg.Ticker, "tier": pb.Tier,
		})
		return nil, nil
	}

	evt := &domain.AlertEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Ticker:    s.cfg.Ticker,
		Mode:      result.Mode,
		Tier:      pb.Tier,
		Action:    pb.Action,
		BuyScore:  result.BuyScore,
		SellScore: result.SellScore,
		RiskScore: result.RiskScore,
		Price:     result.CurrentPrice,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SaveAlert(ctx, evt); err != nil {
		return nil, fmt.Errorf("alert save failed: %w", err)
	}
	s.logger.Info(ctx, "Alert emitted", map[string]interface{}{
		"user": userID, "ticker": evt.Ticker, "tier": evt.Tier, "id": evt.ID,
	})

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, evt); err != nil {
			s.logger.Error(ctx, err, "Alert notification failed", map[string]interface{}{"id": evt.ID})
		}
	}
	return evt, nil
}
