package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Sanitize(t *testing.T) {
	r := &Router{}
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"Plain", "Ada Lovelace", "Ada Lovelace", nil},
		{"Keeps Newlines", "line1\nline2\tx\r", "line1\nline2\tx\r", nil},
		{"Strips ANSI", "\x1b[31mred\x1b[0m", "[31mred[0m", nil},
		{"Strips NUL And BEL", "a\x00b\x07", "ab", nil},
		{"Invalid UTF8", "\xff\xfe", "", ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.sanitize(1, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var rejected *InputError
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, int64(1), rejected.UserID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouter_SanitizeSizeLimit(t *testing.T) {
	t.Run("Env", func(t *testing.T) {
		t.Setenv(EnvMaxInputSize, "8")
		r := &Router{}
		_, err := r.sanitize(2, strings.Repeat("x", 9))
		var rejected *InputError
		require.ErrorAs(t, err, &rejected)
		assert.ErrorIs(t, err, ErrInputTooLarge)
		assert.Equal(t, 9, rejected.Size)
		assert.Equal(t, 8, rejected.Limit)
		assert.Contains(t, err.Error(), "size=9 limit=8")

		got, err := r.sanitize(2, "12345678")
		require.NoError(t, err)
		assert.Equal(t, "12345678", got)
	})

	t.Run("Option Wins Over Env", func(t *testing.T) {
		t.Setenv(EnvMaxInputSize, "100")
		r := &Router{}
		WithMaxInputSize(3)(r)
		_, err := r.sanitize(3, "abcd")
		assert.ErrorIs(t, err, ErrInputTooLarge)
	})

	t.Run("Default", func(t *testing.T) {
		t.Setenv(EnvMaxInputSize, "nonsense")
		r := &Router{}
		_, err := r.sanitize(4, strings.Repeat("x", DefaultMaxInputSize))
		assert.NoError(t, err)
		_, err = r.sanitize(4, strings.Repeat("x", DefaultMaxInputSize+1))
		assert.ErrorIs(t, err, ErrInputTooLarge)
	})
}
