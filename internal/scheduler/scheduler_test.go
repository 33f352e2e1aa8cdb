package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalDesk/internal/app"
	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

type mockEvaluator struct {
	failFor map[string]bool
	calls   []string
}

func (m *mockEvaluator) Evaluate(_ context.Context, ticker string, mode domain.Mode, userID string, _ *domain.UserPosition) (*app.Report, error) {
	m.calls = append(m.calls, ticker)
	if m.failFor[ticker] {
		return nil, errors.New("provider down")
	}
	return &app.Report{
		Analysis: &domain.AnalysisResult{Ticker: ticker, Mode: mode, BuyScore: 8.5, SellScore: 2},
		Playbook: domain.PlaybookResult{Tier: domain.TierStrongBuy},
	}, nil
}

type mockAlerts struct {
	users []string
}

func (m *mockAlerts) Evaluate(_ context.Context, r *domain.AnalysisResult, userID string) (*domain.AlertEvent, error) {
	m.users = append(m.users, userID)
	if userID == "quiet" {
		return nil, nil
	}
	return &domain.AlertEvent{UserID: userID, Ticker: r.Ticker, Tier: domain.TierStrongBuy}, nil
}

func TestRunNow(t *testing.T) {
	ev := &mockEvaluator{failFor: map[string]bool{"ETH": true}}
	al := &mockAlerts{}
	s := New(context.Background(), Config{
		Spec:      "0 */15 * * * *",
		Watchlist: []string{"BTC", "ETH", "AAPL"},
		Mode:      domain.ModeSwing,
		UserIDs:   []string{"u1", "quiet"},
	}, ev, al, nil)

	sum := s.RunNow(context.Background())

	assert.Equal(t, []string{"BTC", "ETH", "AAPL"}, ev.calls)
	require.Len(t, sum.Reports, 2)
	assert.Equal(t, "AAPL", sum.Reports[1].Analysis.Ticker)
	assert.Contains(t, sum.Failed, "ETH")
	require.Len(t, sum.Alerts, 2, "one alert per ticker for u1, none for quiet")
	assert.Equal(t, []string{"u1", "quiet", "u1", "quiet"}, al.users)
}

func TestRunNow_WithoutAlerts(t *testing.T) {
	s := New(context.Background(), Config{Watchlist: []string{"BTC"}, Mode: domain.ModeRiskOnly}, &mockEvaluator{}, nil, nil)
	sum := s.RunNow(context.Background())
	assert.Len(t, sum.Reports, 1)
	assert.Empty(t, sum.Alerts)
}

func TestRunNow_CanceledContext(t *testing.T) {
	ev := &mockEvaluator{}
	s := New(context.Background(), Config{Watchlist: []string{"BTC", "ETH"}}, ev, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := s.RunNow(ctx)
	assert.Empty(t, ev.calls)
	assert.Len(t, sum.Failed, 2)
}

func TestRegister(t *testing.T) {
	s := New(context.Background(), Config{Spec: "not a cron", Watchlist: []string{"BTC"}}, &mockEvaluator{}, nil, nil)
	assert.ErrorIs(t, s.Register(), ports.ErrConfigurationError)

	s = New(context.Background(), Config{Spec: "0 */15 * * * *"}, &mockEvaluator{}, nil, nil)
	assert.ErrorIs(t, s.Register(), ports.ErrConfigurationError, "empty watchlist")

	s = New(context.Background(), Config{Spec: "0 */15 * * * *", Watchlist: []string{"BTC"}}, &mockEvaluator{}, nil, nil)
	require.NoError(t, s.Register())
	s.Start()
	s.Stop(context.Background())
}
