package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const DefaultTopic = "guide.events"

// ChannelBus is the in-process bus used when no broker is reachable.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewChannelBus(topic string, logger watermill.LoggerAdapter) *ChannelBus {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &ChannelBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger),
		topic:  topic,
	}
}

func (b *ChannelBus) Topic() string {
	return b.topic
}

func (b *ChannelBus) Publish(_ context.Context, event Event) error {
	data, err := Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("type", event.EventType())
	if err := b.pubSub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// Subscribe returns the raw message channel; it closes when ctx is done.
func (b *ChannelBus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, b.topic)
}

func (b *ChannelBus) Close() error {
	return b.pubSub.Close()
}
