package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatusAndTitle(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		title  string
	}{
		{KindNotFound, http.StatusNotFound, "Not Found"},
		{KindConflict, http.StatusConflict, "Conflict"},
		{KindUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{KindForbidden, http.StatusForbidden, "Forbidden"},
		{KindValidation, http.StatusUnprocessableEntity, "Validation Error"},
		{KindAuthenticationFailed, http.StatusBadRequest, "Authentication Error"},
		{KindServiceUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
		{KindRateLimited, http.StatusTooManyRequests, "Too Many Requests"},
		{KindMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{KindInternal, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.Status())
			assert.Equal(t, tt.title, tt.kind.Title())
		})
	}
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Item with ID %s not found in %s", "7", "schools"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "lookup: Item with ID 7 not found in schools", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestAsWrapsUnclassified(t *testing.T) {
	cause := errors.New("disk full")
	e := As(cause)

	require.NotNil(t, e)
	assert.Equal(t, KindInternal, e.Kind)
	assert.ErrorIs(t, e, cause)
}

func TestValidationDetail(t *testing.T) {
	single := Validation(FieldError{Loc: []string{"body", "title"}, Msg: "Field required", Type: "missing"})
	assert.Equal(t, "Field required", single.Detail)

	multi := Validation(
		FieldError{Loc: []string{"body", "title"}, Msg: "Field required", Type: "missing"},
		FieldError{Loc: []string{"body", "access_count"}, Msg: "Field required", Type: "missing"},
	)
	assert.Equal(t, "Validation error", multi.Detail)
	assert.Len(t, multi.Fields, 2)
}

func TestUnavailableUnwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := Unavailable("Data file not found", cause)

	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Data file not found")
}
