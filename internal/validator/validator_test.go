package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"first_name" validate:"required,max=10"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@b.co", Name: "Jane"}))

	errs := Validate(sample{Email: "nope", Name: ""})
	assert.Equal(t, map[string]string{"email": "email", "first_name": "required"}, errs)
}

func TestVar(t *testing.T) {
	assert.True(t, Var("jane@example.com", "email"))
	assert.False(t, Var("jane@", "email"))
}
