// Package history keeps an audit log of page evaluations in SQLite. The
// log is strictly best-effort: a failed write costs one audit row, never a
// verdict.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/haukened/phishguard/internal/guard/common/clock"
	"github.com/haukened/phishguard/internal/guard/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	host       TEXT NOT NULL,
	domain     TEXT NOT NULL,
	score      INTEGER NOT NULL,
	action     TEXT NOT NULL,
	findings   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_evaluations_domain ON evaluations(domain);
`

// Entry is one recorded evaluation.
type Entry struct {
	ID       string        `json:"id"`
	URL      string        `json:"url"`
	Host     string        `json:"host"`
	Domain   string        `json:"domain"`
	Score    int           `json:"score"`
	Action   domain.Action `json:"action"`
	Findings []string      `json:"findings"`
	At       time.Time     `json:"at"`
}

// Recorder is the audit-log surface the router and HTTP gateway use.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Store is the SQLite-backed Recorder.
type Store struct {
	db  *sql.DB
	clk clock.Clock
}

// Open creates or opens the history database at path. WAL mode keeps the
// read endpoints responsive while evaluations stream in; a single writer
// connection sidesteps SQLITE_BUSY.
func Open(path string, clk clock.Clock) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db, clk: clk}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one evaluation. A missing id or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = s.clk.Now()
	}
	findings, err := json.Marshal(e.Findings)
	if err != nil {
		return fmt.Errorf("encoding findings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, url, host, domain, score, action, findings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.URL, e.Host, e.Domain, e.Score, e.Action.String(), string(findings), e.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording evaluation: %w", err)
	}
	return nil
}

// Recent returns up to limit evaluations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, host, domain, score, action, findings, created_at
		 FROM evaluations ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			action   string
			findings string
			created  int64
		)
		if err := rows.Scan(&e.ID, &e.URL, &e.Host, &e.Domain, &e.Score, &action, &findings, &created); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if e.Action, err = domain.ParseAction(action); err != nil {
			return nil, fmt.Errorf("decoding history row %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(findings), &e.Findings); err != nil {
			return nil, fmt.Errorf("decoding history row %s: %w", e.ID, err)
		}
		e.At = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Nop is a Recorder that drops everything. Used when history is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                                 { return nil }

var (
	_ Recorder = (*Store)(nil)
	_ Recorder = Nop{}
)
