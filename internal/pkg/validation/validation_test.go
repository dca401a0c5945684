package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

type sample struct {
	Email     string `json:"email"      validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	Nickname  string `json:"nickname,omitempty" validate:"max=4"`
}

func TestValidate_OK(t *testing.T) {
	err := New().Validate(&sample{Email: "a@example.com", FirstName: "A"})
	require.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := New().Validate(&sample{Nickname: "toolong"})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected *domain.ValidationError, got %T", err)
	assert.Equal(t, "email is required", ve.Fields["email"])
	assert.Equal(t, "first_name is required", ve.Fields["first_name"])
	assert.Equal(t, "nickname must be at most 4 characters", ve.Fields["nickname"])
}

func TestValidate_BadEmail(t *testing.T) {
	err := New().Validate(&sample{Email: "not-an-email", FirstName: "A"})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, map[string]string{"email": "email must be a valid email"}, ve.Fields)
}

func TestValidate_NonStruct(t *testing.T) {
	err := New().Validate("nope")

	var ve *domain.ValidationError
	assert.Error(t, err)
	assert.False(t, errors.As(err, &ve))
}
