package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

type mockAlertStore struct {
	saved  []*domain.AlertEvent
	within bool
	err    error
	checks int
}

func (m *mockAlertStore) HasAlertWithin(context.Context, string, string, domain.Tier, time.Duration) (bool, error) {
	m.checks++
	return m.within, m.err
}

func (m *mockAlertStore) SaveAlert(_ context.Context, evt *domain.AlertEvent) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, evt)
	return nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleEvent(created time.Time) *domain.AlertEvent {
	return &domain.AlertEvent{ID: "a1", UserID: "u1", Ticker: "BTC", Mode: domain.ModeSwing, Tier: domain.TierStrongBuy, CreatedAt: created}
}

const alertKey = "alerts:u1:BTC:Strong_Buy"

func TestAlertStore_SaveWritesThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	evt := sampleEvent(now)
	b, _ := json.Marshal(evt)
	mock.ExpectSet(alertKey, b, time.Hour).SetVal("OK")

	inner := &mockAlertStore{}
	s := NewAlertStore(rdb, 0, inner, "")
	require.NoError(t, s.SaveAlert(context.Background(), evt))
	assert.Len(t, inner.saved, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertStore_HasAlertWithin(t *testing.T) {
	tests := []struct {
		name    string
		created time.Time
		want    bool
	}{
		{"recent", now.Add(-30 * time.Minute), true},
		{"expired", now.Add(-61 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rdb, mock := redismock.NewClientMock()
			defer func() { _ = rdb.Close() }()

			b, _ := json.Marshal(sampleEvent(tt.created))
			mock.ExpectGet(alertKey).SetVal(string(b))

			s := NewAlertStore(rdb, 2*time.Hour, nil, "alerts")
			s.now = func() time.Time { return now }
			got, err := s.HasAlertWithin(context.Background(), "u1", "btc", domain.TierStrongBuy, time.Hour)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAlertStore_MissFallsBackToInner(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet(alertKey).RedisNil()
	inner := &mockAlertStore{within: true}
	s := NewAlertStore(rdb, time.Hour, inner, "alerts")

	got, err := s.HasAlertWithin(context.Background(), "u1", "BTC", domain.TierStrongBuy, time.Hour)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, 1, inner.checks)
}

func TestAlertStore_RedisErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet(alertKey).SetErr(errors.New("conn refused"))
	s := NewAlertStore(rdb, time.Hour, nil, "alerts")
	_, err := s.HasAlertWithin(context.Background(), "u1", "BTC", domain.TierStrongBuy, time.Hour)
	assert.ErrorIs(t, err, ports.ErrCacheFailure)

	evt := sampleEvent(now)
	b, _ := json.Marshal(evt)
	mock.ExpectSet(alertKey, b, time.Hour).SetErr(errors.New("conn refused"))
	assert.ErrorIs(t, s.SaveAlert(context.Background(), evt), ports.ErrCacheFailure)
}

func TestAlertStore_MissWithoutInner(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet(alertKey).RedisNil()
	s := NewAlertStore(rdb, time.Hour, nil, "alerts")
	got, err := s.HasAlertWithin(context.Background(), "u1", "BTC", domain.TierStrongBuy, time.Hour)
	require.NoError(t, err)
	assert.False(t, got)
}
