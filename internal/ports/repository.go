package ports

import (
	"context"
	"time"

	"signalDesk/internal/domain"
)

// SignalRecord is one audit entry: the full result plus the mode inputs that produced it.
type SignalRecord struct {
	Result     *domain.AnalysisResult
	Timeframes []string
	Weights    domain.WeightVector
}

// SignalLogger receives completed analyses. Log must not block the caller; failures are
// the logger's own concern.
type SignalLogger interface {
	Log(ctx context.Context, rec SignalRecord) error
}

// SignalStore persists signal records durably.
type SignalStore interface {
	// SaveSignal writes one record.
	SaveSignal(ctx context.Context, rec SignalRecord) error
	// RecentSignals returns the newest records for ticker, newest first.
	RecentSignals(ctx context.Context, ticker string, limit int) ([]*domain.AnalysisResult, error)
}

// PreferenceStore answers whether a user opted in to alerts.
type PreferenceStore interface {
	AlertsEnabled(ctx context.Context, userID string) (bool, error)
	SetAlertPreference(ctx context.Context, userID string, enabled bool) error
}

// AlertStore persists emitted alerts and answers the deduplication query.
type AlertStore interface {
	// HasAlertWithin reports whether an alert for (user, ticker, tier) was saved in the last window.
	HasAlertWithin(ctx context.Context, userID, ticker string, tier domain.Tier, window time.Duration) (bool, error)
	// SaveAlert records an emitted alert.
	SaveAlert(ctx context.Context, evt *domain.AlertEvent) error
}

// Notifier delivers an alert to the user out of band.
type Notifier interface {
	Notify(ctx context.Context, evt *domain.AlertEvent) error
}
