package ports

import (
	"context"
	"time"
)

// RecordKind tags a build history write.
type RecordKind string

const (
	RecordSessionStart RecordKind = "session_start"
	RecordEvent        RecordKind = "event"
	RecordSessionEnd   RecordKind = "session_end"
)

// HistoryRecord is one asynchronous write into build history. Which fields
// are meaningful depends on Kind.
type HistoryRecord struct {
	Kind      RecordKind
	SessionID string
	At        time.Time

	// session_start
	Project string
	Command string

	// event
	EventKind string
	Crate     string

	// session_end
	Success   bool
	ExitError string
}

// Session summarizes one observed build.
type Session struct {
	ID         string
	Project    string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
	ExitError  string
	Started    int
	Finished   int
}

func (s Session) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// CrateDuration is the time between a crate's first started and first
// finished event in a session. Pending crates have no finish time.
type CrateDuration struct {
	Crate      string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Pending    bool
}

// HistoryStore persists build sessions and their events.
type HistoryStore interface {
	ApplyBatch(records []HistoryRecord) error
	Sessions(project string, limit int) ([]Session, error)
	CrateDurations(sessionID string) ([]CrateDuration, error)
	Close() error
}

type EnqueueResult string

const (
	EnqueueAccepted EnqueueResult = "accepted"
	EnqueueDropped  EnqueueResult = "dropped"
)

// HistoryQueue buffers history records between the render loop and the
// write worker.
type HistoryQueue interface {
	Enqueue(rec HistoryRecord) EnqueueResult
	DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]HistoryRecord, error)
	Close() error
}
