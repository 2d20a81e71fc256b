package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorIsMatchesByCode(t *testing.T) {
	err := NewAlreadyEscalated("c-1")
	assert.ErrorIs(t, err, ErrAlreadyEscalated)
	assert.NotErrorIs(t, err, ErrTerminalState)

	wrapped := fmt.Errorf("escalate: %w", err)
	assert.ErrorIs(t, wrapped, ErrAlreadyEscalated)
}

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "domain error passes through", err: NewInvalidInterval(3, 5, 1440), wantCode: CodeInvalidInterval, wantStatus: http.StatusBadRequest},
		{name: "no rows becomes not found", err: fmt.Errorf("load: %w", pgx.ErrNoRows), wantCode: CodeNotFound, wantStatus: http.StatusNotFound},
		{name: "malformed uuid becomes not found", err: fmt.Errorf("load: %w", &pgconn.PgError{Code: "22P02"}), wantCode: CodeNotFound, wantStatus: http.StatusNotFound},
		{name: "other postgres errors are internal", err: &pgconn.PgError{Code: "23505"}, wantCode: CodeInternal, wantStatus: http.StatusInternalServerError},
		{name: "generic error is internal", err: errors.New("boom"), wantCode: CodeInternal, wantStatus: http.StatusInternalServerError},
		{name: "bare sentinel gets a status", err: ErrSweepInProgress, wantCode: CodeSweepInProgress, wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
	assert.Nil(t, ToDomainError(nil))
	assert.Zero(t, ErrSweepInProgress.HTTPStatus)
}

func TestIsMalformedID(t *testing.T) {
	assert.True(t, IsMalformedID(fmt.Errorf("get user: %w", &pgconn.PgError{Code: "22P02"})))
	assert.False(t, IsMalformedID(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsMalformedID(pgx.ErrNoRows))
	assert.False(t, IsMalformedID(nil))
}
