package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedran77/vybe/internal/domain"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

const selectConversation = `
	SELECT c.id, c.user1_id, c.user2_id, c.created_at,
		COALESCE(array_agg(cm.message_id ORDER BY cm.seq) FILTER (WHERE cm.message_id IS NOT NULL), '{}')
	FROM conversations c
	LEFT JOIN conversation_messages cm ON cm.conversation_id = c.id`

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	pair := domain.CanonicalPair(conv.Participants[0], conv.Participants[1])
	query := `
		INSERT INTO conversations (id, user1_id, user2_id, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, conv.ID, pair[0], pair[1], conv.CreatedAt)
	return mapWriteError(err)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	return r.scanConversation(ctx, selectConversation+`
		WHERE c.id = $1
		GROUP BY c.id`, id)
}

func (r *ConversationRepo) GetByParticipants(ctx context.Context, a, b domain.UserID) (*domain.Conversation, error) {
	pair := domain.CanonicalPair(a, b)
	return r.scanConversation(ctx, selectConversation+`
		WHERE c.user1_id = $1 AND c.user2_id = $2
		GROUP BY c.id`, pair[0], pair[1])
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error) {
	query := selectConversation + `
		WHERE c.user1_id = $1 OR c.user2_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.ID, &conv.Participants[0], &conv.Participants[1], &conv.CreatedAt, &conv.MessageIDs,
		); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) AppendMessage(ctx context.Context, conversationID, messageID string) error {
	query := `
		INSERT INTO conversation_messages (conversation_id, message_id)
		VALUES ($1, $2)`
	_, err := r.pool.Exec(ctx, query, conversationID, messageID)
	return err
}

func (r *ConversationRepo) PullMessage(ctx context.Context, messageID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM conversation_messages WHERE message_id = $1`, messageID)
	return err
}

func (r *ConversationRepo) scanConversation(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&conv.ID, &conv.Participants[0], &conv.Participants[1], &conv.CreatedAt, &conv.MessageIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
