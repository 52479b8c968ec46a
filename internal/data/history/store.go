package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"orbit/internal/core/ports"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	defaultBusyTimeout = 2 * time.Second
)

var _ ports.HistoryStore = (*Store)(nil)

// Store keeps build sessions and their events in SQLite.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// NewSessionID returns a random id for a build session.
func NewSessionID() string {
	return uuid.NewString()
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// ApplyBatch writes records in one transaction, in order. Events for an
// unknown session fail the whole batch.
func (s *Store) ApplyBatch(records []ports.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("apply history batch", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		for _, rec := range records {
			if err := applyRecord(tx, rec); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

func applyRecord(tx *sql.Tx, rec ports.HistoryRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	switch rec.Kind {
	case ports.RecordSessionStart:
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO sessions (id, project, command, started_ns) VALUES (?, ?, ?, ?)`,
			rec.SessionID, rec.Project, rec.Command, at.UnixNano(),
		)
		return err
	case ports.RecordEvent:
		_, err := tx.Exec(
			`INSERT INTO events (session_id, kind, crate, at_ns) VALUES (?, ?, ?, ?)`,
			rec.SessionID, rec.EventKind, rec.Crate, at.UnixNano(),
		)
		return err
	case ports.RecordSessionEnd:
		success := 0
		if rec.Success {
			success = 1
		}
		res, err := tx.Exec(
			`UPDATE sessions SET finished_ns = ?, success = ?, exit_error = ? WHERE id = ?`,
			at.UnixNano(), success, rec.ExitError, rec.SessionID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("session %q not found", rec.SessionID)
		}
		return nil
	default:
		return fmt.Errorf("unsupported history record %q", rec.Kind)
	}
}

// Sessions lists the newest sessions of project first. A limit <= 0 returns
// all of them.
func (s *Store) Sessions(project string, limit int) ([]ports.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  s.id, s.project, s.command, s.started_ns, s.finished_ns, s.success, s.exit_error,
  (SELECT COUNT(DISTINCT crate) FROM events e WHERE e.session_id = s.id AND e.kind = 'started'),
  (SELECT COUNT(DISTINCT crate) FROM events e WHERE e.session_id = s.id AND e.kind = 'finished')
FROM sessions s
WHERE s.project = ?
ORDER BY s.started_ns DESC, s.id ASC
`
	args := []any{project}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load sessions", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]ports.Session, 0)
	for rows.Next() {
		var (
			sess                  ports.Session
			startedNs, finishedNs int64
			success               int
		)
		if err := rows.Scan(
			&sess.ID, &sess.Project, &sess.Command, &startedNs, &finishedNs, &success, &sess.ExitError,
			&sess.Started, &sess.Finished,
		); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sess.StartedAt = fromNanos(startedNs)
		sess.FinishedAt = fromNanos(finishedNs)
		sess.Success = success == 1
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

// CrateDurations returns per-crate build times for a session, slowest first.
// Crates still pending sort after finished ones.
func (s *Store) CrateDurations(sessionID string) ([]ports.CrateDuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load crate durations", func() error {
		var qErr error
		rows, qErr = s.db.Query(
			`SELECT crate, started_ns, finished_ns FROM crate_durations WHERE session_id = ?`,
			sessionID,
		)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ports.CrateDuration, 0)
	for rows.Next() {
		var (
			d                     ports.CrateDuration
			startedNs, finishedNs sql.NullInt64
		)
		if err := rows.Scan(&d.Crate, &startedNs, &finishedNs); err != nil {
			return nil, fmt.Errorf("scan duration row: %w", err)
		}
		if startedNs.Valid {
			d.StartedAt = fromNanos(startedNs.Int64)
		}
		if finishedNs.Valid {
			d.FinishedAt = fromNanos(finishedNs.Int64)
		}
		d.Pending = !finishedNs.Valid
		if startedNs.Valid && finishedNs.Valid {
			d.Duration = d.FinishedAt.Sub(d.StartedAt)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duration rows: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pending != out[j].Pending {
			return !out[i].Pending
		}
		if out[i].Duration != out[j].Duration {
			return out[i].Duration > out[j].Duration
		}
		return out[i].Crate < out[j].Crate
	})
	return out, nil
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
