package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/obs"
)

const messageCreatedTopic = "chat.message.created"

// ChatEventPublisher emits message lifecycle events for downstream consumers
// (notification fan-out, analytics). The ledger treats publication as
// best-effort.
type ChatEventPublisher struct {
	Producer    *Producer
	TopicPrefix string
}

type messageCreatedEvent struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	ListingID  string    `json:"listing_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (p *ChatEventPublisher) MessageCreated(ctx context.Context, msg chat.Message) error {
	event := messageCreatedEvent{
		MessageID:  string(msg.ID),
		SenderID:   string(msg.Sender),
		ReceiverID: string(msg.Receiver),
		ListingID:  string(msg.Listing),
		CreatedAt:  msg.CreatedAt,
		RequestID:  obs.RequestIDFromContext(ctx),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := chat.KeyOf(msg).ID()
	return p.Producer.Publish(ctx, p.TopicPrefix+messageCreatedTopic, key, payload, nil)
}

var _ chat.EventPublisher = (*ChatEventPublisher)(nil)
