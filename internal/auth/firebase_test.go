package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityFromClaims(t *testing.T) {
	id := identityFromClaims("uid-1", map[string]interface{}{
		"email":   "an@student.edu.vn",
		"name":    "Tran An",
		"picture": "https://example.com/a.png",
		"admin":   true,
	})

	assert.Equal(t, &Identity{
		UID:     "uid-1",
		Email:   "an@student.edu.vn",
		Name:    "Tran An",
		Picture: "https://example.com/a.png",
	}, id)

	bare := identityFromClaims("uid-2", map[string]interface{}{"email": 42})
	assert.Empty(t, bare.Email)
}
