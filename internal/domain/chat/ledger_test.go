package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
	domainlistings "github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	domainuser "github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/storage/memory"
)

type capturedEvents struct {
	created []chat.Message
	fail    error
}

func (c *capturedEvents) MessageCreated(_ context.Context, msg chat.Message) error {
	if c.fail != nil {
		return c.fail
	}
	c.created = append(c.created, msg)
	return nil
}

type fixture struct {
	ledger   *chat.Ledger
	store    *memory.MessageStore
	users    *memory.UserRepository
	listings *memory.ListingRepository
	events   *capturedEvents
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewMessageStore(),
		users:    memory.NewUserRepository(),
		listings: memory.NewListingRepository(),
		events:   &capturedEvents{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.ledger = &chat.Ledger{
		Store:    f.store,
		Users:    f.users,
		Listings: f.listings,
		Events:   f.events,
		Clock:    func() time.Time { return f.now },
	}
	return f
}

func (f *fixture) addUser(t *testing.T, id, name string) {
	t.Helper()
	err := f.users.Save(context.Background(), &domainuser.User{
		ID:           domainuser.ID(id),
		Email:        id + "@example.com",
		Name:         name,
		PasswordHash: "x",
		Roles:        []domainuser.Role{domainuser.RoleBuyer},
	})
	require.NoError(t, err)
}

func (f *fixture) addListing(t *testing.T, id, title string) {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:     domainlistings.ListingID(id),
		Seller: "seller-1",
		Title:  title,
		Photos: []string{"http://img/" + id + ".jpg"},
		Now:    f.now,
	})
	require.NoError(t, err)
	require.NoError(t, f.listings.Save(context.Background(), listing))
}

func (f *fixture) send(t *testing.T, sender, receiver, listing, content string) *chat.MessageView {
	t.Helper()
	view, err := f.ledger.SendMessage(
		context.Background(),
		domainuser.ID(sender),
		domainuser.ID(receiver),
		domainlistings.ListingID(listing),
		content,
	)
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	return view
}

func TestListConversationsSingleThread(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")

	f.send(t, "alice", "bob", "", "hi")
	f.send(t, "bob", "alice", "", "hello")

	forAlice, err := f.ledger.ListConversations(context.Background(), "alice", 1, 20)
	require.NoError(t, err)
	require.Len(t, forAlice.Items, 1)

	conv := forAlice.Items[0]
	assert.Equal(t, "hello", conv.LastContent)
	assert.Equal(t, domainuser.ID("bob"), conv.LastSender)
	assert.Equal(t, "Bob", conv.Counterpart.Name)
	assert.Nil(t, conv.Listing)
	assert.False(t, conv.IsRead)

	forBob, err := f.ledger.ListConversations(context.Background(), "bob", 1, 20)
	require.NoError(t, err)
	require.Len(t, forBob.Items, 1)
	assert.Equal(t, conv.ID, forBob.Items[0].ID)
	assert.Equal(t, "Alice", forBob.Items[0].Counterpart.Name)
}

func TestListConversationsListingScopesSeparately(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.addListing(t, "bike", "City Bike")

	f.send(t, "alice", "bob", "", "hi")
	f.send(t, "alice", "bob", "bike", "is the bike available?")

	list, err := f.ledger.ListConversations(context.Background(), "alice", 1, 20)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)

	assert.Equal(t, "is the bike available?", list.Items[0].LastContent)
	require.NotNil(t, list.Items[0].Listing)
	assert.Equal(t, "City Bike", list.Items[0].Listing.Title)
	assert.Nil(t, list.Items[1].Listing)
}

func TestListConversationsPaginationIsCompleteAndDisjoint(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	for _, other := range []string{"bob", "carol", "dave"} {
		f.addUser(t, other, other)
		f.send(t, "alice", other, "", "hi "+other)
	}

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		list, err := f.ledger.ListConversations(context.Background(), "alice", page, 1)
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, int64(3), list.Page.TotalItems)
		assert.Equal(t, 3, list.Page.TotalPages)
		assert.False(t, seen[list.Items[0].ID], "conversation repeated across pages")
		seen[list.Items[0].ID] = true
	}
	assert.Len(t, seen, 3)

	// Newest activity first: dave was messaged last.
	first, err := f.ledger.ListConversations(context.Background(), "alice", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("dave"), first.Items[0].Counterpart.ID)
}

func TestListConversationsPageBeyondEnd(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.send(t, "alice", "bob", "", "hi")

	list, err := f.ledger.ListConversations(context.Background(), "alice", 5, 20)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Equal(t, int64(1), list.Page.TotalItems)
	assert.Equal(t, 5, list.Page.Page)
}

func TestListConversationsValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.ListConversations(context.Background(), "", 1, 20)
	assert.ErrorIs(t, err, chat.ErrCallerRequired)

	_, err = f.ledger.ListConversations(context.Background(), "alice", 0, 20)
	assert.ErrorIs(t, err, chat.ErrInvalidPage)

	_, err = f.ledger.ListConversations(context.Background(), "alice", 1, 0)
	assert.ErrorIs(t, err, chat.ErrInvalidPageSize)
}

func TestListConversationsClampsPageSize(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")

	list, err := f.ledger.ListConversations(context.Background(), "alice", 1, 500)
	require.NoError(t, err)
	assert.Equal(t, chat.MaxPageSize, list.Page.PageSize)
}

func TestListConversationsVanishedCounterpart(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.send(t, "alice", "bob", "", "hi")

	// ghost never existed in the user repository; the row still renders.
	require.NoError(t, f.store.Insert(context.Background(), &chat.Message{
		ID: "m-ghost", Sender: "ghost", Receiver: "alice", Content: "boo", CreatedAt: f.now,
	}))

	list, err := f.ledger.ListConversations(context.Background(), "alice", 1, 20)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, domainuser.ID("ghost"), list.Items[0].Counterpart.ID)
	assert.Empty(t, list.Items[0].Counterpart.Name)
}

func TestListMessagesChronologicalWithMeta(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")

	f.send(t, "alice", "bob", "", "one")
	f.send(t, "bob", "alice", "", "two")
	f.send(t, "alice", "bob", "", "three")

	list, err := f.ledger.ListMessages(context.Background(), "bob", "alice", "", 1, 2)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "one", list.Items[0].Content)
	assert.Equal(t, "two", list.Items[1].Content)
	assert.Equal(t, int64(3), list.Page.TotalItems)
	assert.Equal(t, 2, list.Page.TotalPages)

	page2, err := f.ledger.ListMessages(context.Background(), "bob", "alice", "", 2, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.Equal(t, "three", page2.Items[0].Content)
	assert.Equal(t, "Alice", page2.Items[0].Sender.Name)
	assert.Equal(t, "Bob", page2.Items[0].Receiver.Name)
}

func TestListMessagesMarksCallerUnreadAsRead(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")

	f.send(t, "alice", "bob", "", "for bob")
	f.send(t, "bob", "alice", "", "for alice")

	_, err := f.ledger.ListMessages(context.Background(), "bob", "alice", "", 1, 20)
	require.NoError(t, err)

	// Re-reading as alice shows bob's copy flipped but not her own unread one
	// until she opens the thread herself.
	list, err := f.ledger.ListMessages(context.Background(), "alice", "bob", "", 1, 20)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.True(t, list.Items[0].IsRead, "message received by bob should be read after bob opened the thread")
	assert.False(t, list.Items[1].IsRead, "alice's unread message flips only after this fetch")

	again, err := f.ledger.ListMessages(context.Background(), "alice", "bob", "", 1, 20)
	require.NoError(t, err)
	assert.True(t, again.Items[1].IsRead)
}

func TestListMessagesReadMarkScopedToListing(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.addListing(t, "bike", "City Bike")

	f.send(t, "alice", "bob", "bike", "about the bike")
	f.send(t, "alice", "bob", "", "unrelated")

	_, err := f.ledger.ListMessages(context.Background(), "bob", "alice", "bike", 1, 20)
	require.NoError(t, err)

	general, err := f.ledger.ListMessages(context.Background(), "bob", "alice", "", 1, 20)
	require.NoError(t, err)
	// The unscoped thread spans both messages; only the listing-scoped one was
	// read before this call.
	require.Len(t, general.Items, 2)
	assert.True(t, general.Items[0].IsRead)
	assert.False(t, general.Items[1].IsRead)
}

func TestListMessagesValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.ListMessages(context.Background(), "", "bob", "", 1, 20)
	assert.ErrorIs(t, err, chat.ErrCallerRequired)

	_, err = f.ledger.ListMessages(context.Background(), "alice", "", "", 1, 20)
	assert.ErrorIs(t, err, chat.ErrCounterpartRequired)

	_, err = f.ledger.ListMessages(context.Background(), "alice", "alice", "", 1, 20)
	assert.ErrorIs(t, err, chat.ErrSelfConversation)

	_, err = f.ledger.ListMessages(context.Background(), "alice", "bob", "", 0, 20)
	assert.ErrorIs(t, err, chat.ErrInvalidPage)
}

func TestSendMessageAppendsUnread(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.addListing(t, "bike", "City Bike")

	view := f.send(t, "alice", "bob", "bike", "  still available?  ")
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "still available?", view.Content, "content is trimmed")
	assert.False(t, view.IsRead)
	assert.Equal(t, "Alice", view.Sender.Name)
	assert.Equal(t, "Bob", view.Receiver.Name)
	require.NotNil(t, view.Listing)
	assert.Equal(t, "City Bike", view.Listing.Title)

	require.Len(t, f.events.created, 1)
	assert.Equal(t, view.ID, f.events.created[0].ID)
}

func TestSendMessageValidationInsertsNothing(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")

	cases := []struct {
		name     string
		sender   string
		receiver string
		listing  string
		content  string
		want     error
	}{
		{"no sender", "", "bob", "", "hi", chat.ErrCallerRequired},
		{"no receiver", "alice", "", "", "hi", chat.ErrReceiverRequired},
		{"self", "alice", "alice", "", "hi", chat.ErrSelfConversation},
		{"blank content", "alice", "bob", "", "   ", chat.ErrContentRequired},
		{"unknown receiver", "alice", "nobody", "", "hi", domainuser.ErrNotFound},
		{"unknown listing", "alice", "bob", "missing", "hi", domainlistings.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.SendMessage(
				context.Background(),
				domainuser.ID(tc.sender),
				domainuser.ID(tc.receiver),
				domainlistings.ListingID(tc.listing),
				tc.content,
			)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	count, err := f.store.CountThread(context.Background(), chat.ThreadFilter{UserID: "alice", OtherID: "bob"})
	require.NoError(t, err)
	assert.Zero(t, count, "rejected sends must not reach the store")
	assert.Empty(t, f.events.created)
}

func TestSendMessageSurvivesEventFailure(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice")
	f.addUser(t, "bob", "Bob")
	f.events.fail = errors.New("broker down")

	view, err := f.ledger.SendMessage(context.Background(), "alice", "bob", "", "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)

	count, err := f.store.CountThread(context.Background(), chat.ThreadFilter{UserID: "alice", OtherID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
