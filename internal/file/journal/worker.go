package journal

import (
	"context"
	"log/slog"
	"time"
)

const drainTimeout = 5 * time.Second

// AsyncSink queues events for a Worker so slow sinks stay off the request path.
// Events are dropped, and logged, when the queue is full.
type AsyncSink struct {
	queue  chan Event
	logger *slog.Logger
}

func NewAsyncSink(size int, logger *slog.Logger) *AsyncSink {
	return &AsyncSink{queue: make(chan Event, size), logger: logger}
}

func (a *AsyncSink) Append(ctx context.Context, event Event) error {
	select {
	case a.queue <- event:
	default:
		a.logger.WarnContext(ctx, "journal queue full, dropping event",
			"file_id", event.FileID,
			"event_type", event.Type,
		)
	}
	return nil
}

// Worker consumes queued events and appends them to the downstream sink.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, queue *AsyncSink, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: queue.queue, logger: logger}
}

// Run blocks until ctx is done, then flushes what is already queued.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.inbox:
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.append(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.sink.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "journal append failed",
			"file_id", event.FileID,
			"event_type", event.Type,
			"error", err,
		)
	}
}
