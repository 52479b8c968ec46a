package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"orbit/internal/core/ports"
	"orbit/internal/data/queue"
	"orbit/internal/shared/observability"
)

const drainTimeout = 10 * time.Second

func (a *App) initWriteQueue() error {
	if a == nil || a.Config == nil || a.historyStore == nil {
		return nil
	}
	a.historyQueue = queue.NewMemoryQueue(a.Config.History.QueueSize)
	return a.startWriteWorker()
}

func (a *App) startWriteWorker() error {
	if a == nil || a.historyQueue == nil || a.workerCancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	a.workerDone = make(chan struct{})
	go a.runWriteWorker(ctx)
	return nil
}

func (a *App) runWriteWorker(ctx context.Context) {
	defer close(a.workerDone)

	batchSize := a.Config.History.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	flushInterval := a.Config.History.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 100 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch, err := a.historyQueue.DequeueBatch(ctx, batchSize, flushInterval)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil && !errors.Is(err, io.EOF) {
			slog.Warn("history queue dequeue failed", "error", err)
			continue
		}

		if len(batch) > 0 {
			a.applyWriteBatch(batch)
		}
		a.updateQueueMetrics()
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

// applyWriteBatch persists batch. Failed batches are logged and dropped: the
// overlay never waits on history.
func (a *App) applyWriteBatch(batch []ports.HistoryRecord) {
	started := time.Now()
	if err := a.historyStore.ApplyBatch(batch); err != nil {
		observability.WriteQueueApplyErrorsTotal.Inc()
		slog.Warn("history write failed", "error", err, "batch_size", len(batch))
		return
	}
	observability.WriteQueueProcessedTotal.Add(float64(len(batch)))
	observability.WriteQueueFlushLatencySeconds.Observe(time.Since(started).Seconds())
}

// enqueueHistory never blocks. Without a queue the record is discarded.
func (a *App) enqueueHistory(rec ports.HistoryRecord) {
	if a == nil || a.historyQueue == nil {
		return
	}
	switch a.historyQueue.Enqueue(rec) {
	case ports.EnqueueAccepted:
		observability.WriteQueueEnqueuedTotal.Inc()
	case ports.EnqueueDropped:
		observability.WriteQueueDroppedTotal.Inc()
		slog.Debug("history record dropped", "kind", rec.Kind, "session", rec.SessionID)
	}
	a.updateQueueMetrics()
}

func (a *App) stopWriteWorker(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.workerCancel != nil {
		a.workerCancel()
		a.workerCancel = nil
	}
	if a.workerDone != nil {
		select {
		case <-a.workerDone:
		case <-ctx.Done():
			return ctx.Err()
		}
		a.workerDone = nil
	}
	if a.historyQueue != nil {
		if err := a.historyQueue.Close(); err != nil {
			return err
		}
	}
	if err := a.drainWriteQueue(ctx); err != nil {
		return err
	}
	a.historyQueue = nil
	return nil
}

func (a *App) drainWriteQueue(ctx context.Context) error {
	if a == nil || a.historyQueue == nil || a.historyStore == nil {
		return nil
	}
	batchSize := a.Config.History.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := a.historyQueue.DequeueBatch(ctx, batchSize, 0)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if len(batch) > 0 {
			a.applyWriteBatch(batch)
		}
		if len(batch) == 0 || errors.Is(err, io.EOF) {
			a.updateQueueMetrics()
			return nil
		}
	}
}

func (a *App) updateQueueMetrics() {
	if a == nil {
		return
	}
	if mq, ok := a.historyQueue.(*queue.MemoryQueue); ok {
		observability.WriteQueueDepth.Set(float64(mq.Len()))
	}
}
