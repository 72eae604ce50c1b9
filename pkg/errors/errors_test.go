package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTable(t *testing.T) {
	tests := map[Code]struct {
		status    int
		retryable bool
		details   bool
		client    bool
	}{
		CodeValidation:      {status: http.StatusBadRequest, details: true, client: true},
		CodeUnauthorized:    {status: http.StatusUnauthorized, client: true},
		CodeForbidden:       {status: http.StatusForbidden, client: true},
		CodeNotFound:        {status: http.StatusNotFound, client: true},
		CodeProjectMismatch: {status: http.StatusConflict, details: true, client: true},
		CodeInvalidState:    {status: http.StatusUnprocessableEntity, details: true, client: true},
		CodeConflict:        {status: http.StatusConflict, retryable: true, client: true},
		CodeIdempotency:     {status: http.StatusConflict, details: true, client: true},
		CodeRateLimit:       {status: http.StatusTooManyRequests, client: true},
		CodeInternal:        {status: http.StatusInternalServerError, retryable: true},
		CodeDependency:      {status: http.StatusServiceUnavailable, retryable: true, details: true},
	}
	require.Len(t, metadataByCode, len(tests))

	for code, want := range tests {
		meta := MetadataFor(code)
		assert.Equal(t, want.status, meta.HTTPStatus, code)
		assert.Equal(t, want.retryable, meta.Retryable, code)
		assert.Equal(t, want.details, meta.DetailsAllowed, code)
		assert.Equal(t, want.client, meta.ClientMessage, code)
		assert.NotEmpty(t, meta.PublicMessage, code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := Newf(CodeValidation, "width must be positive, got %d", -2)
	assert.Equal(t, CodeValidation, base.Code())
	assert.Equal(t, "width must be positive, got -2", base.Message())
	assert.Nil(t, base.Details())
	assert.Equal(t, "VALIDATION_ERROR: width must be positive, got -2", base.Error())

	base.WithDetails(map[string]any{"field": "width"})
	assert.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load lookup")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE: load lookup: boom", wrapped.Error())
}

func TestAsAndCodeOf(t *testing.T) {
	err := fmt.Errorf("truck add: %w", New(CodeInvalidState, "load delivered"))

	require.NotNil(t, As(err))
	assert.Equal(t, CodeInvalidState, CodeOf(err))
	assert.Nil(t, As(nil))
	assert.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	assert.True(t, IsCode(err, CodeInvalidState))
	assert.False(t, IsCode(err, CodeNotFound))
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Empty(t, e.Message())
	assert.Nil(t, e.WithDetails("x"))
	assert.NoError(t, e.Unwrap())
}
