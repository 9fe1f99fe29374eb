package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vedran77/vybe/internal/domain"
)

var (
	ErrConversationNotFound = errors.New("mongo: conversation not found")
	ErrMessageNotFound      = errors.New("mongo: message not found")
	ErrNotificationNotFound = errors.New("mongo: notification not found")
)

type ConversationRepo struct {
	col *mongo.Collection
}

func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	return &ConversationRepo{col: db.Collection(conversationsCollection)}
}

type conversationDocument struct {
	ID           string    `bson:"_id"`
	PairKey      string    `bson:"pair_key"`
	Participants []string  `bson:"participants"`
	Messages     []string  `bson:"messages"`
	CreatedAt    time.Time `bson:"created_at"`
}

func newConversationDocument(c *domain.Conversation) conversationDocument {
	pair := domain.CanonicalPair(c.Participants[0], c.Participants[1])
	messages := c.MessageIDs
	if messages == nil {
		messages = []string{}
	}
	return conversationDocument{
		ID:           c.ID,
		PairKey:      domain.PairKey(pair[0], pair[1]),
		Participants: []string{string(pair[0]), string(pair[1])},
		Messages:     messages,
		CreatedAt:    c.CreatedAt,
	}
}

func (d conversationDocument) toDomain() domain.Conversation {
	conv := domain.Conversation{
		ID:         d.ID,
		MessageIDs: d.Messages,
		CreatedAt:  d.CreatedAt,
	}
	if len(d.Participants) == 2 {
		conv.Participants = domain.CanonicalPair(domain.UserID(d.Participants[0]), domain.UserID(d.Participants[1]))
	}
	return conv
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	_, err := r.col.InsertOne(ctx, newConversationDocument(conv))
	return mapWriteError(err)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ConversationRepo) GetByParticipants(ctx context.Context, a, b domain.UserID) (*domain.Conversation, error) {
	return r.findOne(ctx, bson.M{"pair_key": domain.PairKey(a, b)})
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"participants": string(userID)}, opts)
	if err != nil {
		return nil, err
	}
	var docs []conversationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	convs := make([]domain.Conversation, 0, len(docs))
	for _, d := range docs {
		convs = append(convs, d.toDomain())
	}
	return convs, nil
}

func (r *ConversationRepo) AppendMessage(ctx context.Context, conversationID, messageID string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{"$push": bson.M{"messages": messageID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepo) PullMessage(ctx context.Context, messageID string) error {
	_, err := r.col.UpdateMany(ctx, bson.M{"messages": messageID}, bson.M{"$pull": bson.M{"messages": messageID}})
	return err
}

func (r *ConversationRepo) findOne(ctx context.Context, filter bson.M) (*domain.Conversation, error) {
	var doc conversationDocument
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	conv := doc.toDomain()
	return &conv, nil
}
