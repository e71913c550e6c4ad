package journal

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
)

// Publisher stamps events and appends them to a sink. Reads go to an optional
// reader, since not every sink can be queried.
type Publisher struct {
	sink   Sink
	reader Reader
}

func NewPublisher(sink Sink, reader Reader) *Publisher {
	return &Publisher{sink: sink, reader: reader}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, event)
}

func (p *Publisher) History(ctx context.Context, fileID id.FileID) ([]Event, error) {
	if p.reader == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "file history is not available on this deployment")
	}
	return p.reader.ListByFile(ctx, fileID)
}
