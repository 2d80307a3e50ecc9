package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/chat"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	"github.com/chrishamcode/marketplace-app-sub001/internal/domain/user"
)

// MessageStore persists the message log in the "messages" collection. A
// write acknowledged by the driver is durable per the connection's write
// concern, and UpdateMany gives the bulk read-mark per-document atomicity.
type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection("messages")}
}

// EnsureIndexes creates the indexes both query shapes depend on.
func (s *MessageStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (s *MessageStore) Insert(ctx context.Context, msg *chat.Message) error {
	if msg == nil {
		return errors.New("mongo: message is required")
	}
	_, err := s.col.InsertOne(ctx, newMessageDocument(*msg))
	return err
}

func (s *MessageStore) ByParticipant(ctx context.Context, userID user.ID) ([]chat.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": string(userID)},
		bson.M{"receiver": string(userID)},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, filter, opts)
}

func (s *MessageStore) Thread(ctx context.Context, filter chat.ThreadFilter, skip, limit int) ([]chat.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	return s.find(ctx, threadPredicate(filter), opts)
}

func (s *MessageStore) CountThread(ctx context.Context, filter chat.ThreadFilter) (int64, error) {
	return s.col.CountDocuments(ctx, threadPredicate(filter))
}

func (s *MessageStore) MarkRead(ctx context.Context, filter chat.ThreadFilter) (int64, error) {
	predicate := bson.M{
		"sender":   string(filter.OtherID),
		"receiver": string(filter.UserID),
		"is_read":  false,
	}
	if filter.Listing != "" {
		predicate["listing"] = string(filter.Listing)
	}
	res, err := s.col.UpdateMany(ctx, predicate, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MessageStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]chat.Message, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []chat.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toMessage())
	}
	return out, cursor.Err()
}

func threadPredicate(filter chat.ThreadFilter) bson.M {
	predicate := bson.M{"$or": bson.A{
		bson.M{"sender": string(filter.UserID), "receiver": string(filter.OtherID)},
		bson.M{"sender": string(filter.OtherID), "receiver": string(filter.UserID)},
	}}
	if filter.Listing != "" {
		predicate["listing"] = string(filter.Listing)
	}
	return predicate
}

type messageDocument struct {
	ID        string `bson:"_id"`
	Sender    string `bson:"sender"`
	Receiver  string `bson:"receiver"`
	Listing   string `bson:"listing,omitempty"`
	Content   string `bson:"content"`
	IsRead    bool   `bson:"is_read"`
	CreatedAt int64  `bson:"created_at"`
}

func newMessageDocument(msg chat.Message) messageDocument {
	return messageDocument{
		ID:        string(msg.ID),
		Sender:    string(msg.Sender),
		Receiver:  string(msg.Receiver),
		Listing:   string(msg.Listing),
		Content:   msg.Content,
		IsRead:    msg.IsRead,
		CreatedAt: msg.CreatedAt.UnixMilli(),
	}
}

func (d messageDocument) toMessage() chat.Message {
	return chat.Message{
		ID:        chat.MessageID(d.ID),
		Sender:    user.ID(d.Sender),
		Receiver:  user.ID(d.Receiver),
		Listing:   listings.ListingID(d.Listing),
		Content:   d.Content,
		IsRead:    d.IsRead,
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
	}
}

var _ chat.MessageStore = (*MessageStore)(nil)
