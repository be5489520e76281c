package service

import (
	"context"
	"sync"

	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	HandleEvent(ctx context.Context, event events.Event) error
	Stats() map[string]int64
}

type messageSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// consumerService writes guide lifecycle events to the audit log and keeps
// per-type counters for the health endpoint.
type consumerService struct {
	source messageSource
	logger logger.ILogger

	mu     sync.Mutex
	counts map[string]int64
}

func NewConsumerService(source messageSource, log logger.ILogger) IConsumerService {
	return &consumerService{
		source: source,
		logger: log,
		counts: make(map[string]int64),
	}
}

// Consume reads from the in-process bus until ctx is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Error("AUDIT", "Failed to decode event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if err := cs.HandleEvent(ctx, event); err != nil {
		msg.Nack()
		return
	}
	msg.Ack()
}

func (cs *consumerService) HandleEvent(_ context.Context, event events.Event) error {
	cs.mu.Lock()
	cs.counts[event.EventType()]++
	cs.mu.Unlock()

	details := map[string]interface{}{
		"event":       event.EventType(),
		"occurred_at": event.Timestamp(),
	}
	for k, v := range event.Payload() {
		details[k] = v
	}

	if event.EventType() == events.GuideSecondaryFailed {
		cs.logger.Warn("AUDIT", "Guide event", details)
	} else {
		cs.logger.Info("AUDIT", "Guide event", details)
	}
	return nil
}

func (cs *consumerService) Stats() map[string]int64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make(map[string]int64, len(cs.counts))
	for k, v := range cs.counts {
		out[k] = v
	}
	return out
}
