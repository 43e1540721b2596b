package store

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestUnavailable_MatchesSentinelAndKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := unavailable("list posts", cause)

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list posts")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestValidationError(t *testing.T) {
	err := errors.Wrap(&ValidationError{Fields: []string{"title", "content"}, Reason: "required"}, "create")

	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "title, content")
	assert.False(t, IsValidation(ErrNotFound))
}

func TestSQLStore_Classify(t *testing.T) {
	s := &SQLStore{}

	tests := []struct {
		name   string
		err    error
		expect func(t *testing.T, err error)
	}{
		{
			name:   "no rows",
			err:    sql.ErrNoRows,
			expect: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "postgres unique violation",
			err:    &pq.Error{Code: "23505", Constraint: "posts_slug_key"},
			expect: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUniqueConstraint) },
		},
		{
			name:   "postgres check violation",
			err:    &pq.Error{Code: "23514", Message: "violates check constraint"},
			expect: func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:   "sqlite unique violation",
			err:    sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			expect: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUniqueConstraint) },
		},
		{
			name:   "sqlite not null violation",
			err:    sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull},
			expect: func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
		{
			name:   "anything else",
			err:    errors.New("driver: bad connection"),
			expect: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrStorageUnavailable) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expect(t, s.classify("op", tt.err))
		})
	}
}
