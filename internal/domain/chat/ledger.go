package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// EventPublisher receives notifications about newly appended messages.
// Publication is best-effort; the ledger never fails a send over it.
type EventPublisher interface {
	MessageCreated(ctx context.Context, msg Message) error
}

// Ledger owns the message log and answers the conversation queries over it.
// It keeps no state of its own; the store is the single source of truth and
// every call recomputes from it.
type Ledger struct {
	Store    MessageStore
	Users    user.Repository
	Listings listings.Repository
	Events   EventPublisher
	Logger   *slog.Logger
	Clock    func() time.Time
}

// ConversationSummary is one row of the conversation list. All last-message
// fields come from the representative message of the key's group.
type ConversationSummary struct {
	ID            string
	Key           Key
	Counterpart   user.Identity
	Listing       *listings.Summary
	LastContent   string
	LastSender    user.ID
	IsRead        bool
	LastCreatedAt time.Time
}

// PageInfo carries offset pagination metadata.
type PageInfo struct {
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

type ConversationList struct {
	Items []ConversationSummary
	Page  PageInfo
}

// MessageView is a message with its participants and listing resolved for
// display.
type MessageView struct {
	ID        MessageID
	Sender    user.Identity
	Receiver  user.Identity
	Listing   *listings.Summary
	Content   string
	IsRead    bool
	CreatedAt time.Time
}

type MessageList struct {
	Items []MessageView
	Page  PageInfo
}

// ListConversations derives the distinct conversations the user participates
// in, newest activity first, and returns the requested page with resolved
// counterpart and listing display data. Read-only.
func (l *Ledger) ListConversations(ctx context.Context, userID user.ID, page, pageSize int) (*ConversationList, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return nil, ErrCallerRequired
	}
	page, pageSize, err := normalizePagination(page, pageSize)
	if err != nil {
		return nil, err
	}

	messages, err := l.Store.ByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chat: load messages: %w", err)
	}
	conversations := Derive(messages)

	total := int64(len(conversations))
	info := pageInfo(page, pageSize, total)

	start := (page - 1) * pageSize
	if start > len(conversations) {
		start = len(conversations)
	}
	end := start + pageSize
	if end > len(conversations) {
		end = len(conversations)
	}

	items := make([]ConversationSummary, 0, end-start)
	for _, conv := range conversations[start:end] {
		counterpart, err := l.resolveIdentity(ctx, conv.Key.Counterpart(userID))
		if err != nil {
			return nil, err
		}
		summary, err := l.resolveListing(ctx, conv.Key.Listing)
		if err != nil {
			return nil, err
		}
		items = append(items, ConversationSummary{
			ID:            conv.Key.ID(),
			Key:           conv.Key,
			Counterpart:   counterpart,
			Listing:       summary,
			LastContent:   conv.Last.Content,
			LastSender:    conv.Last.Sender,
			IsRead:        conv.Last.IsRead,
			LastCreatedAt: conv.Last.CreatedAt,
		})
	}
	return &ConversationList{Items: items, Page: info}, nil
}

// ListMessages returns one page of the thread between userID and otherID in
// chronological order, then flips the caller's unread messages in that thread
// to read. The read-mark is idempotent and best-effort: its failure is logged
// and does not fail the read.
func (l *Ledger) ListMessages(ctx context.Context, userID, otherID user.ID, listingID listings.ListingID, page, pageSize int) (*MessageList, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return nil, ErrCallerRequired
	}
	if strings.TrimSpace(string(otherID)) == "" {
		return nil, ErrCounterpartRequired
	}
	if userID == otherID {
		return nil, ErrSelfConversation
	}
	page, pageSize, err := normalizePagination(page, pageSize)
	if err != nil {
		return nil, err
	}

	filter := ThreadFilter{UserID: userID, OtherID: otherID, Listing: listingID}
	total, err := l.Store.CountThread(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("chat: count thread: %w", err)
	}
	messages, err := l.Store.Thread(ctx, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("chat: load thread: %w", err)
	}

	me, err := l.resolveIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}
	other, err := l.resolveIdentity(ctx, otherID)
	if err != nil {
		return nil, err
	}

	summaries := map[listings.ListingID]*listings.Summary{}
	items := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		summary, ok := summaries[msg.Listing]
		if !ok {
			summary, err = l.resolveListing(ctx, msg.Listing)
			if err != nil {
				return nil, err
			}
			summaries[msg.Listing] = summary
		}
		sender, receiver := me, other
		if msg.Sender == otherID {
			sender, receiver = other, me
		}
		items = append(items, MessageView{
			ID:        msg.ID,
			Sender:    sender,
			Receiver:  receiver,
			Listing:   summary,
			Content:   msg.Content,
			IsRead:    msg.IsRead,
			CreatedAt: msg.CreatedAt,
		})
	}

	if flipped, err := l.Store.MarkRead(ctx, filter); err != nil {
		l.warn("read-state update failed", "user_id", userID, "other_id", otherID, "error", err)
	} else if flipped > 0 {
		l.debug("messages marked read", "user_id", userID, "other_id", otherID, "count", flipped)
	}

	return &MessageList{Items: items, Page: pageInfo(page, pageSize, total)}, nil
}

// SendMessage validates and appends a new unread message. Validation happens
// before storage is touched; a failed send inserts nothing.
func (l *Ledger) SendMessage(ctx context.Context, senderID, receiverID user.ID, listingID listings.ListingID, content string) (*MessageView, error) {
	if strings.TrimSpace(string(senderID)) == "" {
		return nil, ErrCallerRequired
	}
	if strings.TrimSpace(string(receiverID)) == "" {
		return nil, ErrReceiverRequired
	}
	if senderID == receiverID {
		return nil, ErrSelfConversation
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}

	sender, err := l.resolveIdentity(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiverUser, err := l.Users.ByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	var summary *listings.Summary
	if listingID != "" {
		listing, err := l.Listings.ByID(ctx, listingID)
		if err != nil {
			return nil, err
		}
		s := listing.Summary()
		summary = &s
	}

	msg := Message{
		ID:        MessageID(uuid.NewString()),
		Sender:    senderID,
		Receiver:  receiverID,
		Listing:   listingID,
		Content:   content,
		IsRead:    false,
		CreatedAt: l.now(),
	}
	if err := l.Store.Insert(ctx, &msg); err != nil {
		return nil, fmt.Errorf("chat: insert message: %w", err)
	}

	if l.Events != nil {
		if err := l.Events.MessageCreated(ctx, msg); err != nil {
			l.warn("message event publish failed", "message_id", msg.ID, "error", err)
		}
	}

	return &MessageView{
		ID:        msg.ID,
		Sender:    sender,
		Receiver:  receiverUser.Identity(),
		Listing:   summary,
		Content:   msg.Content,
		IsRead:    msg.IsRead,
		CreatedAt: msg.CreatedAt,
	}, nil
}

// resolveIdentity looks up a display identity. A vanished user degrades to a
// bare id so historical conversations still render.
func (l *Ledger) resolveIdentity(ctx context.Context, id user.ID) (user.Identity, error) {
	u, err := l.Users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Identity{ID: id}, nil
		}
		return user.Identity{}, fmt.Errorf("chat: resolve user: %w", err)
	}
	return u.Identity(), nil
}

func (l *Ledger) resolveListing(ctx context.Context, id listings.ListingID) (*listings.Summary, error) {
	if id == "" {
		return nil, nil
	}
	listing, err := l.Listings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, listings.ErrNotFound) {
			return &listings.Summary{ID: id}, nil
		}
		return nil, fmt.Errorf("chat: resolve listing: %w", err)
	}
	s := listing.Summary()
	return &s, nil
}

func (l *Ledger) now() time.Time {
	if l.Clock != nil {
		return l.Clock().UTC()
	}
	return time.Now().UTC()
}

func (l *Ledger) warn(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Warn(msg, args...)
	}
}

func (l *Ledger) debug(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Debug(msg, args...)
	}
}

func normalizePagination(page, pageSize int) (int, int, error) {
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if pageSize < 1 {
		return 0, 0, ErrInvalidPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, nil
}

func pageInfo(page, pageSize int, total int64) PageInfo {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PageInfo{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: totalPages}
}
