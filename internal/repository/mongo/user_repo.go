package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vedran77/vybe/internal/domain"
)

// UserRepo reads the users collection owned by the profile service.
type UserRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection(usersCollection)}
}

type userDocument struct {
	ID             string `bson:"_id"`
	Username       string `bson:"username"`
	ProfilePicture string `bson:"profilePicture"`
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var doc userDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:             domain.UserID(doc.ID),
		Username:       doc.Username,
		ProfilePicture: doc.ProfilePicture,
	}, nil
}
