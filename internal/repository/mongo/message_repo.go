package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vedran77/vybe/internal/domain"
)

type MessageRepo struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{col: db.Collection(messagesCollection)}
}

type messageDocument struct {
	ID         string     `bson:"_id"`
	SenderID   string     `bson:"sender_id"`
	ReceiverID string     `bson:"receiver_id"`
	Body       string     `bson:"body"`
	CreatedAt  time.Time  `bson:"created_at"`
	EditedAt   *time.Time `bson:"edited_at,omitempty"`
}

func (d messageDocument) toDomain() domain.Message {
	return domain.Message{
		ID:         d.ID,
		SenderID:   domain.UserID(d.SenderID),
		ReceiverID: domain.UserID(d.ReceiverID),
		Body:       d.Body,
		CreatedAt:  d.CreatedAt,
		EditedAt:   d.EditedAt,
	}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	_, err := r.col.InsertOne(ctx, messageDocument{
		ID:         msg.ID,
		SenderID:   string(msg.SenderID),
		ReceiverID: string(msg.ReceiverID),
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
		EditedAt:   msg.EditedAt,
	})
	return mapWriteError(err)
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var doc messageDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msg := doc.toDomain()
	return &msg, nil
}

func (r *MessageRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Message, error) {
	if len(ids) == 0 {
		return []domain.Message{}, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []messageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	byID := make(map[string]messageDocument, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	messages := make([]domain.Message, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			messages = append(messages, d.toDomain())
		}
	}
	return messages, nil
}

func (r *MessageRepo) UpdateBody(ctx context.Context, id, body string, editedAt time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"body": body, "edited_at": editedAt}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}
