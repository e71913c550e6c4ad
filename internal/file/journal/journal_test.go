package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherStampsEvents(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store, store)
	fileID := id.NewFileID()

	require.NoError(t, pub.Emit(context.Background(), Event{Type: EventFileCreated, FileID: fileID}))
	require.NoError(t, pub.Emit(context.Background(), Event{Type: EventStatusChanged, FileID: fileID, Status: "In Transit"}))

	history, err := pub.History(context.Background(), fileID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotEmpty(t, history[0].ID)
	assert.NotEqual(t, history[0].ID, history[1].ID)
	assert.False(t, history[0].Timestamp.IsZero())
	assert.Equal(t, EventStatusChanged, history[1].Type)
}

func TestHistoryWithoutReader(t *testing.T) {
	pub := NewPublisher(NewMemoryStore(), nil)
	_, err := pub.History(context.Background(), id.NewFileID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

type failingSink struct{}

func (failingSink) Append(context.Context, Event) error { return errors.New("broker down") }

func TestTeeJoinsErrors(t *testing.T) {
	store := NewMemoryStore()
	fileID := id.NewFileID()
	err := Tee{store, failingSink{}}.Append(context.Background(), Event{FileID: fileID})

	assert.ErrorContains(t, err, "broker down")
	events, _ := store.ListByFile(context.Background(), fileID)
	assert.Len(t, events, 1, "healthy sinks still receive the event")
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestWorkerDeliversAndStops(t *testing.T) {
	downstream := &recordingSink{}
	queue := NewAsyncSink(16, discard())
	worker := NewWorker(downstream, queue, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	for range 5 {
		require.NoError(t, queue.Append(context.Background(), Event{FileID: id.NewFileID()}))
	}
	require.Eventually(t, func() bool { return downstream.count() == 5 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	downstream := &recordingSink{}
	queue := NewAsyncSink(16, discard())
	for range 3 {
		require.NoError(t, queue.Append(context.Background(), Event{FileID: id.NewFileID()}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, NewWorker(downstream, queue, discard()).Run(ctx))
	assert.Equal(t, 3, downstream.count())
}

func TestAsyncSinkDropsWhenFull(t *testing.T) {
	queue := NewAsyncSink(1, discard())
	require.NoError(t, queue.Append(context.Background(), Event{}))
	require.NoError(t, queue.Append(context.Background(), Event{}))
	assert.Len(t, queue.queue, 1)
}
