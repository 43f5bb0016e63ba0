package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func TestNewAccount(t *testing.T) {
	t.Run("creates account with hashed password", func(t *testing.T) {
		acc, err := NewAccount("  Admin@ISOW.com ", "Admin", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "admin@isow.com", acc.Email)
		assert.Equal(t, "Admin", acc.DisplayName)
		assert.NotEqual(t, "secret1", acc.PasswordHash)
		assert.True(t, acc.VerifyPassword("secret1"))
		assert.False(t, acc.VerifyPassword("wrong"))
	})

	t.Run("fails with malformed email", func(t *testing.T) {
		_, err := NewAccount("not-an-email", "", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid email format")
	})

	t.Run("fails with empty password", func(t *testing.T) {
		_, err := NewAccount("a@b.com", "", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with short password", func(t *testing.T) {
		_, err := NewAccount("a@b.com", "", "12345")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 6 characters")
	})
}

func TestAccount_SetPassword(t *testing.T) {
	acc, err := NewAccount("a@b.com", "", "secret1")
	require.NoError(t, err)

	require.NoError(t, acc.SetPassword("another1"))
	assert.True(t, acc.VerifyPassword("another1"))
	assert.False(t, acc.VerifyPassword("secret1"))
}

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"maria@isow.com", "maria"},
		{"no-at-sign", "no-at-sign"},
		{"@isow.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromEmail(tt.email))
		})
	}
}
