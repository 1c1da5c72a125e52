//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"tallyman/internal/ledger/models"
	"tallyman/internal/ledger/publisher"
	"tallyman/internal/platform/config"
	"tallyman/internal/platform/kafka"
	"tallyman/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "ledger.transactions.it"
	producer, err := kafka.NewProducer(config.KafkaConfig{
		Brokers:  []string{broker.Broker},
		Topic:    topic,
		ClientID: "tallyman-it",
	})
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, 1))
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, 1), "existing topic is not an error")

	tx := models.Transaction{
		ID:          1,
		Sender:      "alice",
		Recipient:   "bob",
		Amount:      models.AmountFromInt(50),
		Timestamp:   "2025-01-01T00:00:00Z",
		Fingerprint: "2f95f66f52b2e15b0c4344da246faf5200ada1bb9644a3efdce622911856113a",
	}
	require.NoError(t, publisher.NewKafka(producer, topic).PublishAppended(ctx, tx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.NotEmpty(t, records)

	var event publisher.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &event))
	assert.Equal(t, publisher.EventAppended, event.Type)
	assert.Equal(t, "alice", string(records[0].Key))
	assert.Equal(t, tx, event.Transaction)
}
