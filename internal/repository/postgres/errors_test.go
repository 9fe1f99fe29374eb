package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/vybe/internal/repository"
)

func TestMapWriteError(t *testing.T) {
	req := require.New(t)

	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "conversations_user1_id_user2_id_key"})
	req.ErrorIs(mapWriteError(dup), repository.ErrDuplicate)

	fk := &pgconn.PgError{Code: "23503"}
	req.Equal(error(fk), mapWriteError(fk))

	other := errors.New("conn reset")
	req.Equal(other, mapWriteError(other))

	req.NoError(mapWriteError(nil))
}
