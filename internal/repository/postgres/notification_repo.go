package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedran77/vybe/internal/domain"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

const notificationColumns = `id, to_id, from_id, type, read, data, created_at`

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	data := []byte(n.Data)
	if len(data) == 0 {
		data = []byte("{}")
	}
	query := `
		INSERT INTO notifications (id, to_id, from_id, type, read, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		n.ID, n.To, n.From, n.Type, n.Read, data, n.CreatedAt,
	)
	return mapWriteError(err)
}

func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, userID domain.UserID, page, limit int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE to_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, page*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string, userID domain.UserID) (*domain.Notification, error) {
	query := `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND to_id = $2
		RETURNING ` + notificationColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID domain.UserID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE to_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepo) scanOne(row pgx.Row) (*domain.Notification, error) {
	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n    domain.Notification
		from *string
		data []byte
	)
	if err := row.Scan(&n.ID, &n.To, &from, &n.Type, &n.Read, &data, &n.CreatedAt); err != nil {
		return nil, err
	}
	if from != nil {
		id := domain.UserID(*from)
		n.From = &id
	}
	n.Data = data
	return &n, nil
}
