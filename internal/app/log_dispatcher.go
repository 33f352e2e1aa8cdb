package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signalDesk/internal/ports"
)

// DefaultLogQueueSize is the dispatcher buffer when none is configured.
const DefaultLogQueueSize = 256

// storeWriteTimeout bounds one SaveSignal call made by the worker.
const storeWriteTimeout = 5 * time.Second

// LogDispatcher decouples signal persistence from analysis. Log never blocks; records that do
// not fit in the queue are dropped with a warning.
type LogDispatcher struct {
	store  ports.SignalStore
	logger ports.Logger
	queue  chan ports.SignalRecord

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewLogDispatcher starts the single writer goroutine.
func NewLogDispatcher(store ports.SignalStore, logger ports.Logger, queueSize int) *LogDispatcher {
	if queueSize <= 0 {
		queueSize = DefaultLogQueueSize
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	d := &LogDispatcher{
		store:  store,
		logger: logger,
		queue:  make(chan ports.SignalRecord, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Log enqueues a copy of rec.
func (d *LogDispatcher) Log(ctx context.Context, rec ports.SignalRecord) error {
	if rec.Result == nil {
		return fmt.Errorf("signal log failed: %w: nil result", ports.ErrInvalidRequest)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ports.ErrLoggerClosed
	}
	rec.Result = rec.Result.Clone()
	rec.Timeframes = append([]string(nil), rec.Timeframes...)
	select {
	case d.queue <- rec:
		return nil
	default:
		d.logger.Warn(ctx, "Signal log queue full, dropping record", map[string]interface{}{
			"ticker": rec.Result.Ticker, "id": rec.Result.ID,
		})
		return nil
	}
}

func (d *LogDispatcher) run() {
	defer close(d.done)
	for rec := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
		if err := d.store.SaveSignal(ctx, rec); err != nil {
			d.logger.Error(ctx, err, "Failed to persist signal", map[string]interface{}{
				"ticker": rec.Result.Ticker, "id": rec.Result.ID,
			})
		}
		cancel()
	}
}

// Close stops intake and waits for queued records to be written or ctx to expire.
// Safe to call more than once.
func (d *LogDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("signal log drain failed: %w: %w", ports.ErrTimeout, ctx.Err())
	}
}
