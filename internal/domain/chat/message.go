package chat

import (
	"context"
	"errors"
	"time"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
)

var (
	ErrCallerRequired      = errors.New("chat: caller identity is required")
	ErrCounterpartRequired = errors.New("chat: counterpart user is required")
	ErrReceiverRequired    = errors.New("chat: receiver is required")
	ErrContentRequired     = errors.New("chat: content is required")
	ErrSelfConversation    = errors.New("chat: sender and receiver must differ")
	ErrInvalidPage         = errors.New("chat: page must be at least 1")
	ErrInvalidPageSize     = errors.New("chat: page size must be at least 1")
)

type MessageID string

// Message is an immutable fact once stored; only IsRead changes, and only
// through the receiver reading the conversation.
type Message struct {
	ID        MessageID
	Sender    user.ID
	Receiver  user.ID
	Listing   listings.ListingID // empty when the thread is not about an item
	Content   string
	IsRead    bool
	CreatedAt time.Time
}

// Before reports whether m precedes other in the total order
// (CreatedAt, ID). The id tie-break keeps ordering stable for messages
// created within the same millisecond.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// ThreadFilter selects the messages exchanged between two users, in either
// direction. Listing narrows the selection to one item's thread; when empty
// no listing filter is applied.
type ThreadFilter struct {
	UserID  user.ID
	OtherID user.ID
	Listing listings.ListingID
}

// MessageStore is the durable append-only message log. Implementations must
// not acknowledge Insert before the write is durable, and MarkRead must be
// atomic: either every matching message flips or none does.
type MessageStore interface {
	Insert(ctx context.Context, msg *Message) error

	// ByParticipant returns every message the user sent or received.
	ByParticipant(ctx context.Context, userID user.ID) ([]Message, error)

	// Thread returns the filtered messages in chronological order
	// (ascending CreatedAt, then ID) with skip/limit applied.
	Thread(ctx context.Context, filter ThreadFilter, skip, limit int) ([]Message, error)

	// CountThread counts the filtered messages independently of pagination.
	CountThread(ctx context.Context, filter ThreadFilter) (int64, error)

	// MarkRead flips every unread message in the thread whose receiver is
	// filter.UserID and reports how many were flipped. Messages sent by
	// filter.UserID are never touched.
	MarkRead(ctx context.Context, filter ThreadFilter) (int64, error)
}
