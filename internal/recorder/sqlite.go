package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists cycle and win history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs
// migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc reads (sqlite3 CLI, Grafana) don't block writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS metrics_cycles (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			trigger_reason  TEXT,
			total_won_deals INTEGER,
			total_value     REAL,
			average_ticket  REAL,
			duration_ms     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON metrics_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS win_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			deal_id     TEXT,
			salesperson TEXT,
			value       REAL,
			title       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wins_ts ON win_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO metrics_cycles
		(timestamp, trigger_reason, total_won_deals, total_value, average_ticket, duration_ms)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Trigger, rec.TotalWonDeals,
		rec.TotalValue, rec.AverageTicket, rec.DurationMs,
	)
	return err
}

func (r *SQLiteRecorder) RecordWin(rec *WinRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO win_events
		(timestamp, deal_id, salesperson, value, title)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), rec.DealID, rec.Salesperson, rec.Value, rec.Title,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
