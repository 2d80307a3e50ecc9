package chat

import (
	"net/url"
	"sort"
	"strings"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
)

// Key identifies a conversation: the unordered participant pair plus the
// listing scope. A message A->B and a message B->A about the same listing
// canonicalize to the same key. The key is a typed composite rather than a
// delimited string so participant ids containing separator characters cannot
// collide.
type Key struct {
	ParticipantLow  user.ID
	ParticipantHigh user.ID
	Listing         listings.ListingID
}

// KeyFor canonicalizes the participant pair by ordering the two ids.
func KeyFor(a, b user.ID, listing listings.ListingID) Key {
	if b < a {
		a, b = b, a
	}
	return Key{ParticipantLow: a, ParticipantHigh: b, Listing: listing}
}

// KeyOf derives the conversation key a message belongs to.
func KeyOf(msg Message) Key {
	return KeyFor(msg.Sender, msg.Receiver, msg.Listing)
}

// Counterpart returns the participant that is not me. Callers must pass one
// of the two participants.
func (k Key) Counterpart(me user.ID) user.ID {
	if k.ParticipantLow == me {
		return k.ParticipantHigh
	}
	return k.ParticipantLow
}

// Scoped reports whether the conversation concerns a listing.
func (k Key) Scoped() bool {
	return k.Listing != ""
}

// ID renders the key as an opaque identifier for transport. Each part is
// escaped before joining, so the separator cannot collide with id contents.
func (k Key) ID() string {
	parts := []string{
		url.QueryEscape(string(k.ParticipantLow)),
		url.QueryEscape(string(k.ParticipantHigh)),
		url.QueryEscape(string(k.Listing)),
	}
	return strings.Join(parts, "|")
}

// Conversation is a derived projection over the message log. It has no
// storage of its own; Last is the representative message, the newest in the
// key's group.
type Conversation struct {
	Key  Key
	Last Message
}

// Derive partitions messages by conversation key, selects each partition's
// representative and returns the conversations newest-first. Ordering is
// total via (CreatedAt, ID) of the representative, so page boundaries stay
// deterministic under re-derivation.
func Derive(messages []Message) []Conversation {
	groups := make(map[Key]Message, len(messages))
	for _, msg := range messages {
		key := KeyOf(msg)
		current, ok := groups[key]
		if !ok || current.Before(msg) {
			groups[key] = msg
		}
	}

	conversations := make([]Conversation, 0, len(groups))
	for key, last := range groups {
		conversations = append(conversations, Conversation{Key: key, Last: last})
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[j].Last.Before(conversations[i].Last)
	})
	return conversations
}
