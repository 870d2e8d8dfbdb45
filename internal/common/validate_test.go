package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"omitempty,oneof=member admin"`
}

func TestValidateStructOK(t *testing.T) {
	err := ValidateStruct(samplePayload{Email: "a@x.com", Password: "longenough", Role: "admin"})
	assert.NoError(t, err)
}

func TestValidateStructCollectsFieldErrors(t *testing.T) {
	err := ValidateStruct(samplePayload{Email: "not-an-email", Password: "short", Role: "owner"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Details, 3)
	assert.Contains(t, vErr.Details, "email must be a valid email address")
	assert.Contains(t, vErr.Details, "password must be at least 8 characters")
	assert.Contains(t, vErr.Details, "role must be one of: member admin")
}

func TestValidateStructMapsToBadRequest(t *testing.T) {
	err := ValidateStruct(samplePayload{})
	require.Error(t, err)
	assert.Equal(t, 400, HTTPStatusFromError(err))
}
