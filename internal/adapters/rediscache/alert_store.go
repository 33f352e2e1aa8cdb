package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

// AlertStore keeps the most recent alert per (user, ticker, tier) in Redis with a TTL and
// optionally writes through to a durable store. Reads fall back to the durable store on a miss
// or a Redis error.
type AlertStore struct {
	rdb       *redis.Client
	inner     ports.AlertStore
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

// NewAlertStore builds the store. ttl should be at least the dedup window; it defaults to one
// hour. inner may be nil.
func NewAlertStore(rdb *redis.Client, ttl time.Duration, inner ports.AlertStore, namespace string) *AlertStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "alerts"
	}
	return &AlertStore{rdb: rdb, inner: inner, ttl: ttl, namespace: namespace, now: time.Now}
}

func (s *AlertStore) key(userID, ticker string, tier domain.Tier) string {
	return fmt.Sprintf("%s:%s:%s:%s", s.namespace, safe(userID), safe(domain.NormalizeTicker(ticker)), safe(string(tier)))
}

// HasAlertWithin reports whether an alert for the triple was stored less than window ago.
func (s *AlertStore) HasAlertWithin(ctx context.Context, userID, ticker string, tier domain.Tier, window time.Duration) (bool, error) {
	b, err := s.rdb.Get(ctx, s.key(userID, ticker, tier)).Bytes()
	if err == nil {
		var evt domain.AlertEvent
		if jerr := json.Unmarshal(b, &evt); jerr == nil {
			return s.now().Sub(evt.CreatedAt) < window, nil
		}
	} else if !errors.Is(err, redis.Nil) && s.inner == nil {
		return false, fmt.Errorf("alert lookup failed: %w: %w", ports.ErrCacheFailure, err)
	}
	if s.inner == nil {
		return false, nil
	}
	return s.inner.HasAlertWithin(ctx, userID, ticker, tier, window)
}

// SaveAlert writes through to the durable store first, then records the event in Redis.
func (s *AlertStore) SaveAlert(ctx context.Context, evt *domain.AlertEvent) error {
	if s.inner != nil {
		if err := s.inner.SaveAlert(ctx, evt); err != nil {
			return err
		}
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("alert encode failed: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(evt.UserID, evt.Ticker, evt.Tier), b, s.ttl).Err(); err != nil {
		if s.inner != nil {
			return nil // durable copy exists, dedup falls back to it
		}
		return fmt.Errorf("alert save failed: %w: %w", ports.ErrCacheFailure, err)
	}
	return nil
}
