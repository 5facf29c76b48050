package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SignalDesk/internal/model"
	"SignalDesk/pkg/logger"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deliveries (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			recipient_id TEXT NOT NULL,
			reason       TEXT,
			session      TEXT,
			delivered    INTEGER,
			channels     INTEGER,
			error        TEXT,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_ts ON deliveries(timestamp)`,

		`CREATE TABLE IF NOT EXISTS strategy_signals (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			signal       TEXT NOT NULL,
			price        REAL,
			fast_sma     REAL,
			slow_sma     REAL,
			position     INTEGER,
			message      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON strategy_signals(timestamp)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDelivery(evt *DeliveryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	if evt.Delivered {
		delivered = 1
	}
	_, err := r.db.Exec(`INSERT INTO deliveries
		(timestamp, recipient_id, reason, session, delivered, channels, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.RecipientID, string(evt.Reason), evt.Session,
		delivered, evt.Channels, evt.Error, evt.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(res *model.StrategyResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := res.EvaluatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO strategy_signals
		(timestamp, symbol, signal, price, fast_sma, slow_sma, position, message)
		VALUES (?,?,?,?,?,?,?,?)`,
		ts.Unix(), res.Symbol, string(res.Signal), res.Price,
		res.FastSMA, res.SlowSMA, res.CurrentPosition, res.Message,
	)
	return err
}

func (r *SQLiteRecorder) RecentSignals(limit int) ([]model.StrategyResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, symbol, signal, price, fast_sma, slow_sma, position, message
		FROM strategy_signals ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []model.StrategyResult
	for rows.Next() {
		var (
			ts     int64
			signal string
			res    model.StrategyResult
		)
		if err := rows.Scan(&ts, &res.Symbol, &signal, &res.Price, &res.FastSMA, &res.SlowSMA, &res.CurrentPosition, &res.Message); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		res.Signal = model.Signal(signal)
		res.EvaluatedAt = time.Unix(ts, 0)
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite recorder")
	return r.db.Close()
}
