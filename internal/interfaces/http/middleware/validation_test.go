package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,max=5"`
	Role  string `json:"role" binding:"oneof=ADMIN STAFF"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()
	err := binding.Validator.ValidateStruct(&signup{Email: "nope", Name: "too long", Role: "ROOT"})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 3)
	byField := map[string]string{}
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid email format", byField["email"])
	assert.Equal(t, "Must be at most 5 characters", byField["name"])
	assert.Equal(t, "Must be one of: ADMIN STAFF", byField["role"])
}

func TestValidationDetails_OtherError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
