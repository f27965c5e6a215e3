package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"vardrill/domain/core"
)

func TestWrap_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"session not found", core.ErrSessionNotFound, CodeNotFound, http.StatusNotFound},
		{"unknown action", fmt.Errorf("%w x", core.ErrActionNotFound), CodeNotFound, http.StatusNotFound},
		{"invalid action", core.NewInvalidActionError("no factor"), CodeValidationError, http.StatusBadRequest},
		{"empty dataset", core.ErrEmptyDataset, CodeDataSourceError, http.StatusUnprocessableEntity},
		{"anything else", fmt.Errorf("boom"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.err, "context")
			assert.Equal(t, tt.code, GetCode(err))
			assert.Equal(t, tt.status, HTTPStatus(err))
			assert.True(t, stderrors.Is(err, tt.err))
		})
	}
}

func TestWrap_KeepsAppErrorCode(t *testing.T) {
	inner := DatabaseError("insert failed", fmt.Errorf("locked"))
	err := Wrapf(inner, "session %s", "abc")
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
	assert.Equal(t, "session abc: insert failed: locked", err.Error())
}

func TestWithCode(t *testing.T) {
	cause := fmt.Errorf("bad json")
	err := WithCode(CodeInvalidInput, cause)
	assert.Equal(t, "bad json", err.Error())
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.ErrorIs(t, err, cause)

	overridden := WithCode(CodeConfigInvalid, NotFound("profile"))
	assert.Equal(t, CodeConfigInvalid, GetCode(overridden))
}

func TestNilPassThrough(t *testing.T) {
	assert.NoError(t, Wrap(nil, "x"))
	assert.NoError(t, Wrapf(nil, "x %d", 1))
	assert.NoError(t, WithCode(CodeNotFound, nil))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}
