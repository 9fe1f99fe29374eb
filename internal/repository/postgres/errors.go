package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vedran77/vybe/internal/repository"
)

var (
	ErrMessageNotFound      = errors.New("postgres: message not found")
	ErrNotificationNotFound = errors.New("postgres: notification not found")
)

const uniqueViolation = "23505"

// mapWriteError turns unique key violations into repository.ErrDuplicate.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}
