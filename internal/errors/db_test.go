package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError_Nil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBError_ContextErrors(t *testing.T) {
	err := MapDBError(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrCodeTimeout, CodeOf(err))

	err = MapDBError(context.Canceled)
	assert.Equal(t, ErrCodeCanceled, CodeOf(err))
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	assert.True(t, IsNotFound(err))
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "key"}
	err := MapDBError(pgErr)
	require.True(t, IsConflict(err))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "key", appErr.Field)
}

func TestMapDBError_UndefinedTable(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.UndefinedTable})
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.Contains(t, appErr.Message, "migrations")
}

func TestMapDBError_Passthrough(t *testing.T) {
	cause := errors.New("unrelated")
	assert.Equal(t, cause, MapDBError(cause))
}
