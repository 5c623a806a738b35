package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.publicMsg, meta.PublicMessage)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "customer is required")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "customer is required", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "customer_id"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "insert order")
	assert.True(t, stdErrors.Is(wrapped, cause))
	assert.Equal(t, CodeConflict, wrapped.Code())
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAsAndIsCodeUnwrapChains(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStateConflict, "order already delivered"))
	got := As(err)
	require.NotNil(t, got)
	assert.Equal(t, CodeStateConflict, got.Code())
	assert.True(t, IsCode(err, CodeStateConflict))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.Nil(t, As(nil))
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("disk full"), "write movement")
	d := Dump(err)
	assert.Equal(t, CodeInternal, d.Code)
	assert.Len(t, d.Chain, 2)
	assert.Empty(t, d.PG.Code)
	assert.False(t, d.Contention)
	assert.NotContains(t, d.Fields(), "pg_code")
}

func TestDumpFlagsLockContention(t *testing.T) {
	err := Wrap(CodeInternal, &pgconn.PgError{Code: "40P01", TableName: "inventory_items"}, "consume supplies")
	d := Dump(err)
	assert.Equal(t, "40P01", d.PG.Code)
	assert.True(t, d.Contention)
	fields := d.Fields()
	assert.Equal(t, "inventory_items", fields["pg_table"])
	assert.Equal(t, true, fields["db_contention"])

	pqDump := Dump(fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "orders_code_key"}))
	assert.Equal(t, "orders_code_key", pqDump.PG.Constraint)
	assert.False(t, pqDump.Contention)
}
