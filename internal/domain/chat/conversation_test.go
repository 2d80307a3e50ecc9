package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyForCanonicalizesParticipants(t *testing.T) {
	forward := KeyFor("alice", "bob", "listing-1")
	backward := KeyFor("bob", "alice", "listing-1")
	assert.Equal(t, forward, backward)
	assert.Equal(t, "alice", string(forward.ParticipantLow))
	assert.Equal(t, "bob", string(forward.ParticipantHigh))
}

func TestKeyListingScopeSeparatesConversations(t *testing.T) {
	scoped := KeyFor("alice", "bob", "listing-1")
	general := KeyFor("alice", "bob", "")
	assert.NotEqual(t, scoped, general)
	assert.True(t, scoped.Scoped())
	assert.False(t, general.Scoped())
}

func TestKeyCounterpart(t *testing.T) {
	key := KeyFor("alice", "bob", "")
	assert.Equal(t, "bob", string(key.Counterpart("alice")))
	assert.Equal(t, "alice", string(key.Counterpart("bob")))
}

func TestKeyIDEscapesSeparator(t *testing.T) {
	tricky := KeyFor("a|b", "c", "")
	plain := KeyFor("a", "b|c", "")
	assert.NotEqual(t, tricky.ID(), plain.ID())
}

func TestDeriveGroupsByPairAndListing(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "m1", Sender: "alice", Receiver: "bob", Content: "hi", CreatedAt: t0},
		{ID: "m2", Sender: "bob", Receiver: "alice", Content: "hello", CreatedAt: t0.Add(time.Minute)},
		{ID: "m3", Sender: "alice", Receiver: "bob", Listing: "listing-1", Content: "still available?", CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "m4", Sender: "carol", Receiver: "alice", Content: "hey", CreatedAt: t0.Add(3 * time.Minute)},
	}

	conversations := Derive(messages)
	require.Len(t, conversations, 3)

	// Newest representative first.
	assert.Equal(t, MessageID("m4"), conversations[0].Last.ID)
	assert.Equal(t, MessageID("m3"), conversations[1].Last.ID)
	assert.Equal(t, MessageID("m2"), conversations[2].Last.ID)

	assert.Equal(t, KeyFor("alice", "bob", "listing-1"), conversations[1].Key)
	assert.Equal(t, KeyFor("alice", "bob", ""), conversations[2].Key)
}

func TestDeriveRepresentativeIsNewestMessage(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "m2", Sender: "bob", Receiver: "alice", Content: "second", CreatedAt: t0.Add(time.Minute)},
		{ID: "m1", Sender: "alice", Receiver: "bob", Content: "first", CreatedAt: t0},
		{ID: "m3", Sender: "alice", Receiver: "bob", Content: "third", CreatedAt: t0.Add(2 * time.Minute)},
	}

	conversations := Derive(messages)
	require.Len(t, conversations, 1)
	assert.Equal(t, MessageID("m3"), conversations[0].Last.ID)
	assert.Equal(t, "third", conversations[0].Last.Content)
}

func TestDeriveTieBreaksOnMessageID(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []Message{
		{ID: "m-b", Sender: "alice", Receiver: "bob", Content: "b", CreatedAt: at},
		{ID: "m-a", Sender: "alice", Receiver: "bob", Content: "a", CreatedAt: at},
		{ID: "n-z", Sender: "alice", Receiver: "carol", Content: "z", CreatedAt: at},
	}

	conversations := Derive(messages)
	require.Len(t, conversations, 2)
	// Same timestamp everywhere, so both the representative choice and the
	// conversation order fall back to the id comparison.
	assert.Equal(t, MessageID("n-z"), conversations[0].Last.ID)
	assert.Equal(t, MessageID("m-b"), conversations[1].Last.ID)
}

func TestDeriveEmptyLog(t *testing.T) {
	assert.Empty(t, Derive(nil))
}

func TestMessageBeforeTotalOrder(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := Message{ID: "z", CreatedAt: t0}
	later := Message{ID: "a", CreatedAt: t0.Add(time.Millisecond)}
	assert.True(t, earlier.Before(later))
	assert.False(t, later.Before(earlier))

	sameInstantA := Message{ID: "a", CreatedAt: t0}
	sameInstantB := Message{ID: "b", CreatedAt: t0}
	assert.True(t, sameInstantA.Before(sameInstantB))
	assert.False(t, sameInstantB.Before(sameInstantA))
}
