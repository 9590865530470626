package service

import (
	"context"
	"testing"
	"time"

	"travel-chat-be/internal/constant"
	"travel-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestAuditPipeline_EventBecomesSystemLogRow(t *testing.T) {
	bus := newTestBus(t)
	factory := newFakeFactory()

	consumer := NewConsumerService(bus, constant.ChatAuditTopicName, factory)
	require.NoError(t, consumer.Consume(context.Background()))

	publisher := NewPublisherService(bus, constant.ChatAuditTopicName)
	evt := events.BaseEvent{
		Type: constant.EventChatTurnCompleted,
		Data: map[string]interface{}{
			"session_id": uuid.New().String(),
		},
		OccurredAt: time.Now(),
	}
	require.NoError(t, publisher.Publish(context.Background(), evt))

	assert.Eventually(t, func() bool {
		return len(factory.uow.logs.all()) == 1
	}, time.Second, 10*time.Millisecond)

	entry := factory.uow.logs.all()[0]
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, constant.EventChatTurnCompleted, entry.Message)
	require.NotNil(t, entry.Module)
	assert.Equal(t, "chat", *entry.Module)
	require.NotNil(t, entry.Details)
	assert.Contains(t, *entry.Details, constant.EventChatTurnCompleted)
}

func TestAuditPipeline_MalformedPayloadIsDropped(t *testing.T) {
	bus := newTestBus(t)
	factory := newFakeFactory()

	consumer := NewConsumerService(bus, constant.ChatAuditTopicName, factory)
	require.NoError(t, consumer.Consume(context.Background()))

	require.NoError(t, bus.Publish(constant.ChatAuditTopicName,
		message.NewMessage(watermill.NewUUID(), []byte("{not json"))))

	publisher := NewPublisherService(bus, constant.ChatAuditTopicName)
	require.NoError(t, publisher.Publish(context.Background(), events.BaseEvent{
		Type:       constant.EventChatSessionCreated,
		OccurredAt: time.Now(),
	}))

	// The bad message is acked and skipped; the good one still lands.
	assert.Eventually(t, func() bool {
		logs := factory.uow.logs.all()
		return len(logs) == 1 && logs[0].Message == constant.EventChatSessionCreated
	}, time.Second, 10*time.Millisecond)
}
