package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedran77/vybe/internal/domain"
	"github.com/vedran77/vybe/internal/repository"
)

// UserRepo reads the profile table owned by the profile service.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `SELECT id, username, profile_picture FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.Username, &u.ProfilePicture,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// NewSet builds the Postgres backend.
func NewSet(pool *pgxpool.Pool) repository.Set {
	return repository.Set{
		Conversations: NewConversationRepo(pool),
		Messages:      NewMessageRepo(pool),
		Notifications: NewNotificationRepo(pool),
		Users:         NewUserRepo(pool),
	}
}
