package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentityForIs(t *testing.T) {
	err := Clone(ErrNotAuthenticated, "drive session expired")
	require.True(t, errors.Is(err, ErrNotAuthenticated))
	assert.False(t, errors.Is(err, ErrRemote))
	assert.Equal(t, "drive session expired", err.Message)
	assert.Equal(t, "not signed in", ErrNotAuthenticated.Message)
}

func TestFromErrorWrapsPlainErrors(t *testing.T) {
	plain := fmt.Errorf("boom")
	appErr := FromError(plain)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, plain)

	wrapped := fmt.Errorf("outer: %w", Clone(ErrValidation, "bad month"))
	assert.Equal(t, "bad month", FromError(wrapped).Message)
	assert.Nil(t, FromError(nil))
}
