package queue

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"orbit/internal/core/ports"
)

var _ ports.HistoryQueue = (*MemoryQueue)(nil)

// MemoryQueue is a bounded, non-blocking queue of history records. Enqueue
// never waits: a full or closed queue drops the record.
type MemoryQueue struct {
	ch      chan ports.HistoryRecord
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryQueue{ch: make(chan ports.HistoryRecord, capacity)}
}

func (q *MemoryQueue) Enqueue(rec ports.HistoryRecord) ports.EnqueueResult {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.closed {
		select {
		case q.ch <- rec:
			return ports.EnqueueAccepted
		default:
		}
	}
	q.dropped.Add(1)
	return ports.EnqueueDropped
}

// DequeueBatch waits up to wait for a first record, then takes whatever else
// is immediately available up to maxItems. io.EOF means the queue is closed
// and drained.
func (q *MemoryQueue) DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]ports.HistoryRecord, error) {
	if maxItems <= 0 {
		maxItems = 1
	}

	first, ok, err := q.first(ctx, wait)
	if !ok {
		return nil, err
	}

	batch := make([]ports.HistoryRecord, 0, maxItems)
	batch = append(batch, first)
	for len(batch) < maxItems {
		select {
		case rec, open := <-q.ch:
			if !open {
				return batch, io.EOF
			}
			batch = append(batch, rec)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

func (q *MemoryQueue) first(ctx context.Context, wait time.Duration) (ports.HistoryRecord, bool, error) {
	select {
	case rec, open := <-q.ch:
		if !open {
			return rec, false, io.EOF
		}
		return rec, true, nil
	default:
	}
	if wait <= 0 {
		return ports.HistoryRecord{}, false, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case rec, open := <-q.ch:
		if !open {
			return rec, false, io.EOF
		}
		return rec, true, nil
	case <-ctx.Done():
		return ports.HistoryRecord{}, false, ctx.Err()
	case <-timer.C:
		return ports.HistoryRecord{}, false, nil
	}
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}

func (q *MemoryQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.ch)
}

// Dropped counts records rejected by Enqueue.
func (q *MemoryQueue) Dropped() int64 {
	return q.dropped.Load()
}
