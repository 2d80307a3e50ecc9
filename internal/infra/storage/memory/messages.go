package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
)

// MessageStore keeps the message log in memory. Dev and test use only; the
// semantics mirror the mongo store.
type MessageStore struct {
	mu       sync.RWMutex
	messages []chat.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Insert(ctx context.Context, msg *chat.Message) error {
	if msg == nil {
		return errors.New("memory: message is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MessageStore) ByParticipant(ctx context.Context, userID user.ID) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []chat.Message
	for _, msg := range s.messages {
		if msg.Sender == userID || msg.Receiver == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *MessageStore) Thread(ctx context.Context, filter chat.ThreadFilter, skip, limit int) ([]chat.Message, error) {
	s.mu.RLock()
	matched := s.matchLocked(filter)
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Before(matched[j])
	})
	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return nil, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MessageStore) CountThread(ctx context.Context, filter chat.ThreadFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchLocked(filter))), nil
}

func (s *MessageStore) MarkRead(ctx context.Context, filter chat.ThreadFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped int64
	for i := range s.messages {
		msg := &s.messages[i]
		if !matchesThread(*msg, filter) {
			continue
		}
		if msg.Receiver != filter.UserID || msg.IsRead {
			continue
		}
		msg.IsRead = true
		flipped++
	}
	return flipped, nil
}

func (s *MessageStore) matchLocked(filter chat.ThreadFilter) []chat.Message {
	var out []chat.Message
	for _, msg := range s.messages {
		if matchesThread(msg, filter) {
			out = append(out, msg)
		}
	}
	return out
}

func matchesThread(msg chat.Message, filter chat.ThreadFilter) bool {
	pair := (msg.Sender == filter.UserID && msg.Receiver == filter.OtherID) ||
		(msg.Sender == filter.OtherID && msg.Receiver == filter.UserID)
	if !pair {
		return false
	}
	if filter.Listing != "" && msg.Listing != filter.Listing {
		return false
	}
	return true
}

var _ chat.MessageStore = (*MessageStore)(nil)
