package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	req := require.New(t)

	encoded, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.True(strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := VerifyPassword("correct horse battery staple", encoded)
	req.NoError(err)
	req.True(ok)

	ok, err = VerifyPassword("wrong password", encoded)
	req.NoError(err)
	req.False(ok)
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("hunter2hunter2")
	req.NoError(err)
	second, err := HashPassword("hunter2hunter2")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	req := require.New(t)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$bad-params$c2FsdA$aGFzaA",
	} {
		_, err := VerifyPassword("password", encoded)
		req.ErrorIs(err, errMalformedHash, "hash %q", encoded)
	}
}
