package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vedran77/vybe/internal/domain"
)

type NotificationRepo struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) *NotificationRepo {
	return &NotificationRepo{col: db.Collection(notificationsCollection)}
}

// notificationDocument stores data as a real sub-document so it stays queryable.
type notificationDocument struct {
	ID        string    `bson:"_id"`
	To        string    `bson:"to"`
	From      *string   `bson:"from,omitempty"`
	Type      string    `bson:"type"`
	Read      bool      `bson:"read"`
	Data      bson.D    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

func newNotificationDocument(n *domain.Notification) (notificationDocument, error) {
	doc := notificationDocument{
		ID:        n.ID,
		To:        string(n.To),
		Type:      string(n.Type),
		Read:      n.Read,
		Data:      bson.D{},
		CreatedAt: n.CreatedAt,
	}
	if n.From != nil {
		from := string(*n.From)
		doc.From = &from
	}
	if len(n.Data) > 0 {
		if err := bson.UnmarshalExtJSON(n.Data, false, &doc.Data); err != nil {
			return doc, fmt.Errorf("encoding notification data: %w", err)
		}
	}
	return doc, nil
}

func (d notificationDocument) toDomain() (domain.Notification, error) {
	n := domain.Notification{
		ID:        d.ID,
		To:        domain.UserID(d.To),
		Type:      domain.NotificationType(d.Type),
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
	}
	if d.From != nil {
		from := domain.UserID(*d.From)
		n.From = &from
	}
	data := d.Data
	if data == nil {
		data = bson.D{}
	}
	raw, err := bson.MarshalExtJSON(data, false, false)
	if err != nil {
		return n, fmt.Errorf("decoding notification data: %w", err)
	}
	n.Data = raw
	return n, nil
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	doc, err := newNotificationDocument(n)
	if err != nil {
		return err
	}
	_, err = r.col.InsertOne(ctx, doc)
	return mapWriteError(err)
}

func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	return r.decodeOne(r.col.FindOne(ctx, bson.M{"_id": id}))
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, userID domain.UserID, page, limit int) ([]domain.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page * limit)).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"to": string(userID)}, opts)
	if err != nil {
		return nil, err
	}
	var docs []notificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	items := make([]domain.Notification, 0, len(docs))
	for _, d := range docs {
		n, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string, userID domain.UserID) (*domain.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "to": string(userID)},
		bson.M{"$set": bson.M{"read": true}},
		opts,
	)
	return r.decodeOne(res)
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID domain.UserID) (int64, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{"to": string(userID), "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepo) decodeOne(res *mongo.SingleResult) (*domain.Notification, error) {
	var doc notificationDocument
	err := res.Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	n, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &n, nil
}
