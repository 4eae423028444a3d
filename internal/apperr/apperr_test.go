package apperr

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("dashboard: %w", NotFoundf("order %s not found", "o-1"))

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, Conflict))
	assert.Equal(t, Unexpected, KindOf(sql.ErrConnDone))
	assert.False(t, Is(nil, Unexpected))
}

func TestMessageOfHidesUnexpectedDetail(t *testing.T) {
	err := Wrap(Unexpected, sql.ErrConnDone, "select failed")
	assert.Equal(t, "something went wrong", MessageOf(err, "something went wrong"))
	assert.Equal(t, "something went wrong", MessageOf(sql.ErrConnDone, "something went wrong"))

	assert.Equal(t, "quantity must be >= 0", MessageOf(Validationf("quantity must be >= 0"), "x"))
}

func TestErrorUnwrap(t *testing.T) {
	err := Wrap(Conflict, sql.ErrNoRows, "email taken")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, "email taken: sql: no rows in result set", err.Error())
	assert.Equal(t, "conflict", Conflict.String())
}
