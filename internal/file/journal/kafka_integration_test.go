//go:build integration

package journal_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"filetrack/internal/file/journal"
	"filetrack/internal/platform/config"
	"filetrack/internal/platform/kafka"
	id "filetrack/pkg/domain"
	"filetrack/pkg/testutil/containers"
)

func TestKafkaSinkProducesKeyedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "file-journal-test"
	producer, err := kafka.New(config.KafkaConfig{Brokers: broker.Brokers, JournalTopic: topic})
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, 1))

	fileID := id.NewFileID()
	pub := journal.NewPublisher(journal.NewKafkaSink(producer, topic), nil)
	require.NoError(t, pub.Emit(ctx, journal.Event{
		Type:             journal.EventFileReceived,
		FileID:           fileID,
		AdministrationID: "B",
		Status:           "In Review",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, fileID.String(), string(records[0].Key))

	var got journal.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, journal.EventFileReceived, got.Type)
	require.Equal(t, fileID, got.FileID)
}
