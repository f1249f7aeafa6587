package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPendingQueryConsumerService interface {
	Consume(ctx context.Context) error
}

// pendingQueryConsumerService drains staged tutor queries. Staging returns to
// the client immediately; the actual send happens here when the session is
// idle.
type pendingQueryConsumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	tutorService ITutorService
}

func NewPendingQueryConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	tutorService ITutorService,
) IPendingQueryConsumerService {
	return &pendingQueryConsumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		tutorService: tutorService,
	}
}

func (cs *pendingQueryConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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

func (cs *pendingQueryConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload PublishPendingQueryMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal pending query signal: %v", err)
		msg.Ack()
		return
	}

	if err := cs.tutorService.ConsumePendingFor(ctx, payload.ChatSessionId); err != nil {
		log.Printf("[ERROR] Failed to consume pending query for session %s: %v", payload.ChatSessionId, err)
		msg.Nack()
		return
	}

	msg.Ack()
}
