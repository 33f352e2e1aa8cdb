package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

// Repository implements ports.SignalStore, ports.AlertStore and ports.PreferenceStore using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
	now    func() time.Time
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository: %w", ports.ErrConfigurationError)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/signals.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w: %w", filepath.Dir(dbPath), ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite serialises writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger, now: time.Now}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist. Times are stored as Unix milliseconds.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS signal_logs (
		id TEXT PRIMARY KEY,
		ticker TEXT NOT NULL,
		asset_type TEXT NOT NULL,
		mode TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		buy_score REAL NOT NULL,
		sell_score REAL NOT NULL,
		risk_score REAL NOT NULL,
		regime TEXT NOT NULL,
		price REAL NOT NULL,
		suggested_action TEXT NOT NULL,
		timeframes TEXT NOT NULL,
		weights TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alert_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		ticker TEXT NOT NULL,
		mode TEXT NOT NULL,
		tier TEXT NOT NULL,
		action TEXT NOT NULL,
		buy_score REAL NOT NULL,
		sell_score REAL NOT NULL,
		risk_score REAL NOT NULL,
		price REAL NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alert_preferences (
		user_id TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_signal_logs_ticker_created ON signal_logs (ticker, created_at);
	CREATE INDEX IF NOT EXISTS idx_alert_events_dedup ON alert_events (user_id, ticker, tier, created_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- SignalStore Implementation ---

// SaveSignal stores the scalar columns for querying plus the full result as JSON.
func (r *Repository) SaveSignal(ctx context.Context, rec ports.SignalRecord) error {
	res := rec.Result
	if res == nil {
		return fmt.Errorf("save signal failed: %w: nil result", ports.ErrInvalidRequest)
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("save signal failed: encode result: %w", err)
	}
	timeframes, err := json.Marshal(rec.Timeframes)
	if err != nil {
		return fmt.Errorf("save signal failed: encode timeframes: %w", err)
	}
	weights, err := json.Marshal(rec.Weights)
	if err != nil {
		return fmt.Errorf("save signal failed: encode weights: %w", err)
	}

	const query = `
	INSERT INTO signal_logs (id, ticker, asset_type, mode, created_at, buy_score, sell_score, risk_score,
	                         regime, price, suggested_action, timeframes, weights, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		res.ID, res.Ticker, res.AssetType, res.Mode, res.Timestamp.UnixMilli(),
		res.BuyScore, res.SellScore, res.RiskScore, res.MarketRegime, res.CurrentPrice,
		res.SuggestedAction, string(timeframes), string(weights), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert signal for ticker %s: %w: %w", res.Ticker, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Signal logged", map[string]interface{}{"id": res.ID, "ticker": res.Ticker, "mode": res.Mode})
	return nil
}

// RecentSignals returns up to limit stored results for ticker, newest first.
func (r *Repository) RecentSignals(ctx context.Context, ticker string, limit int) ([]*domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
	SELECT payload FROM signal_logs
	WHERE ticker = ?
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, domain.NormalizeTicker(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for %s: %w: %w", ticker, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	results := make([]*domain.AnalysisResult, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %w: %w", ports.ErrQueryFailed, err)
		}
		var res domain.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, fmt.Errorf("failed to decode signal payload: %w", err)
		}
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return results, nil
}

// --- AlertStore Implementation ---

// HasAlertWithin reports whether an alert for the triple was created less than window ago.
func (r *Repository) HasAlertWithin(ctx context.Context, userID, ticker string, tier domain.Tier, window time.Duration) (bool, error) {
	const query = `
	SELECT 1 FROM alert_events
	WHERE user_id = ? AND ticker = ? AND tier = ? AND created_at > ?
	LIMIT 1`

	since := r.now().Add(-window).UnixMilli()
	var one int
	err := r.db.QueryRowContext(ctx, query, userID, domain.NormalizeTicker(ticker), tier, since).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query alerts for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	return true, nil
}

// SaveAlert stores an emitted alert.
func (r *Repository) SaveAlert(ctx context.Context, evt *domain.AlertEvent) error {
	if evt == nil {
		return fmt.Errorf("save alert failed: %w: nil event", ports.ErrInvalidRequest)
	}
	const query = `
	INSERT INTO alert_events (id, user_id, ticker, mode, tier, action, buy_score, sell_score, risk_score, price, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		evt.ID, evt.UserID, domain.NormalizeTicker(evt.Ticker), evt.Mode, evt.Tier, evt.Action,
		evt.BuyScore, evt.SellScore, evt.RiskScore, evt.Price, evt.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w: %w", evt.ID, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Alert stored", map[string]interface{}{"id": evt.ID, "user": evt.UserID, "tier": evt.Tier})
	return nil
}

// RecentAlerts returns up to limit alerts for userID, newest first.
func (r *Repository) RecentAlerts(ctx context.Context, userID string, limit int) ([]*domain.AlertEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
	SELECT id, user_id, ticker, mode, tier, action, buy_score, sell_score, risk_score, price, created_at
	FROM alert_events
	WHERE user_id = ?
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	events := make([]*domain.AlertEvent, 0)
	for rows.Next() {
		var (
			evt       domain.AlertEvent
			createdAt int64
		)
		if err := rows.Scan(&evt.ID, &evt.UserID, &evt.Ticker, &evt.Mode, &evt.Tier, &evt.Action,
			&evt.BuyScore, &evt.SellScore, &evt.RiskScore, &evt.Price, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w: %w", ports.ErrQueryFailed, err)
		}
		evt.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, &evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return events, nil
}

// --- PreferenceStore Implementation ---

// AlertsEnabled reports whether userID opted in. Unknown users are opted out.
func (r *Repository) AlertsEnabled(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT enabled FROM alert_preferences WHERE user_id = ?`

	var enabled bool
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query preference for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	return enabled, nil
}

// SetAlertPreference upserts the opt-in flag for userID.
func (r *Repository) SetAlertPreference(ctx context.Context, userID string, enabled bool) error {
	if userID == "" {
		return fmt.Errorf("set preference failed: %w: empty user id", ports.ErrInvalidRequest)
	}
	const query = `
	INSERT INTO alert_preferences (user_id, enabled, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, userID, enabled, r.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to upsert preference for user %s: %w: %w", userID, ports.ErrUpdateFailed, err)
	}
	r.logger.Info(ctx, "Alert preference updated", map[string]interface{}{"user": userID, "enabled": enabled})
	return nil
}
