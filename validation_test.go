package auth_test

import (
	"errors"
	"testing"

	auth "github.com/goliatone/go-session-auth"
	"github.com/stretchr/testify/assert"
)

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("ozzo validation errors become a field map", func(t *testing.T) {
		err := auth.RegisterUserMessage{
			Username: "abc",
			Email:    "not-an-email",
			Password: "short",
		}.Validate()

		out := auth.FormatValidationErrorToMap(err)
		assert.NotEmpty(t, out["username"])
		assert.NotEmpty(t, out["email"])
		assert.NotEmpty(t, out["password"])
	})

	t.Run("plain errors fall back to a single message", func(t *testing.T) {
		out := auth.FormatValidationErrorToMap(errors.New("boom"))
		assert.Equal(t, map[string]string{"error": "boom"}, out)
	})

	t.Run("nil error yields an empty map", func(t *testing.T) {
		out := auth.FormatValidationErrorToMap(nil)
		assert.Empty(t, out)
	})
}
