package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
)

func seedMessages(t *testing.T, store *MessageStore) {
	t.Helper()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixtures := []chat.Message{
		{ID: "m1", Sender: "alice", Receiver: "bob", Content: "one", CreatedAt: t0},
		{ID: "m2", Sender: "bob", Receiver: "alice", Content: "two", CreatedAt: t0.Add(time.Minute)},
		{ID: "m3", Sender: "alice", Receiver: "bob", Listing: "bike", Content: "three", CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "m4", Sender: "alice", Receiver: "carol", Content: "four", CreatedAt: t0.Add(3 * time.Minute)},
	}
	for i := range fixtures {
		require.NoError(t, store.Insert(context.Background(), &fixtures[i]))
	}
}

func TestByParticipant(t *testing.T) {
	store := NewMessageStore()
	seedMessages(t, store)

	messages, err := store.ByParticipant(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for _, msg := range messages {
		assert.True(t, msg.Sender == "bob" || msg.Receiver == "bob")
	}

	none, err := store.ByParticipant(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestThreadMatchesBothDirections(t *testing.T) {
	store := NewMessageStore()
	seedMessages(t, store)

	messages, err := store.Thread(context.Background(), chat.ThreadFilter{UserID: "bob", OtherID: "alice"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, chat.MessageID("m1"), messages[0].ID)
	assert.Equal(t, chat.MessageID("m2"), messages[1].ID)
	assert.Equal(t, chat.MessageID("m3"), messages[2].ID)
}

func TestThreadListingFilter(t *testing.T) {
	store := NewMessageStore()
	seedMessages(t, store)

	scoped, err := store.Thread(context.Background(), chat.ThreadFilter{UserID: "alice", OtherID: "bob", Listing: "bike"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, chat.MessageID("m3"), scoped[0].ID)

	// Empty listing means no filter, not "messages without a listing".
	all, err := store.Thread(context.Background(), chat.ThreadFilter{UserID: "alice", OtherID: "bob"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestThreadSkipLimit(t *testing.T) {
	store := NewMessageStore()
	seedMessages(t, store)
	filter := chat.ThreadFilter{UserID: "alice", OtherID: "bob"}

	page, err := store.Thread(context.Background(), filter, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, chat.MessageID("m2"), page[0].ID)

	past, err := store.Thread(context.Background(), filter, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestCountThread(t *testing.T) {
	store := NewMessageStore()
	seedMessages(t, store)

	count, err := store.CountThread(context.Background(), chat.ThreadFilter{UserID: "alice", OtherID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.CountThread(context.Background(), chat.ThreadFilter{UserID: "alice", OtherID: "carol"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkReadFlipsOnlyReceiverUnread(t *testing.T) {
	store := NewMessageStore()
	seedMessages(t, store)
	filter := chat.ThreadFilter{UserID: "bob", OtherID: "alice"}

	flipped, err := store.MarkRead(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), flipped, "only messages received by bob flip")

	messages, err := store.Thread(context.Background(), filter, 0, 10)
	require.NoError(t, err)
	for _, msg := range messages {
		if msg.Receiver == "bob" {
			assert.True(t, msg.IsRead, "message %s", msg.ID)
		} else {
			assert.False(t, msg.IsRead, "message %s sent by bob must stay untouched", msg.ID)
		}
	}

	again, err := store.MarkRead(context.Background(), filter)
	require.NoError(t, err)
	assert.Zero(t, again, "second pass is a no-op")
}

func TestMarkReadRespectsListingScope(t *testing.T) {
	store := NewMessageStore()
	seedMessages(t, store)

	flipped, err := store.MarkRead(context.Background(), chat.ThreadFilter{UserID: "bob", OtherID: "alice", Listing: "bike"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	remaining, err := store.Thread(context.Background(), chat.ThreadFilter{UserID: "bob", OtherID: "alice"}, 0, 10)
	require.NoError(t, err)
	for _, msg := range remaining {
		if msg.ID == "m3" {
			assert.True(t, msg.IsRead)
		} else {
			assert.False(t, msg.IsRead)
		}
	}
}
