package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"VitalSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists status events and check runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *slog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *slog.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the watcher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS status_events (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			metric      TEXT NOT NULL,
			classifier  TEXT NOT NULL,
			label       TEXT,
			severity    TEXT,
			value       REAL,
			secondary   REAL,
			paired      INTEGER NOT NULL DEFAULT 0,
			measured_at INTEGER NOT NULL,
			detected_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_detected ON status_events(detected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_status_metric ON status_events(user_id, metric)`,

		`CREATE TABLE IF NOT EXISTS check_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			user_id     TEXT,
			metrics     INTEGER,
			alerts      INTEGER,
			failures    INTEGER,
			fallbacks   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_check_started ON check_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable stores NaN as NULL; SQLite has no NaN.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func (r *SQLiteRecorder) RecordStatusEvent(evt *model.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var secondary sql.NullFloat64
	if evt.Paired {
		secondary = nullable(evt.Secondary)
	}
	_, err := r.db.Exec(`INSERT INTO status_events
		(id, user_id, metric, classifier, label, severity, value, secondary, paired, measured_at, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.UserID, evt.Metric, evt.Classifier,
		evt.Label, evt.Severity.String(),
		nullable(evt.Value), secondary, evt.Paired,
		evt.MeasuredAt.Unix(), evt.DetectedAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordCheckRun(run *CheckRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO check_runs
		(started_at, finished_at, user_id, metrics, alerts, failures, fallbacks)
		VALUES (?,?,?,?,?,?,?)`,
		run.StartedAt.Unix(), run.FinishedAt.Unix(), run.UserID,
		run.Metrics, run.Alerts, run.Failures, run.Fallbacks,
	)
	return err
}

// RecentEvents returns up to limit status events, most recently detected first.
func (r *SQLiteRecorder) RecentEvents(limit int) ([]model.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, user_id, metric, classifier, label, severity,
		value, secondary, paired, measured_at, detected_at
		FROM status_events ORDER BY detected_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query status events: %w", err)
	}
	defer rows.Close()

	var out []model.StatusEvent
	for rows.Next() {
		var (
			evt                  model.StatusEvent
			severity             string
			value, secondary     sql.NullFloat64
			measuredAt, detected int64
		)
		if err := rows.Scan(&evt.ID, &evt.UserID, &evt.Metric, &evt.Classifier, &evt.Label, &severity,
			&value, &secondary, &evt.Paired, &measuredAt, &detected); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		evt.Severity, _ = model.ParseSeverity(severity)
		evt.Value = math.NaN()
		if value.Valid {
			evt.Value = value.Float64
		}
		if evt.Paired {
			evt.Secondary = math.NaN()
			if secondary.Valid {
				evt.Secondary = secondary.Float64
			}
		}
		evt.MeasuredAt = time.Unix(measuredAt, 0).UTC()
		evt.DetectedAt = time.Unix(detected, 0).UTC()
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
