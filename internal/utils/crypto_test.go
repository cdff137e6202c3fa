// internal/utils/crypto_test.go
package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateApprovalTokenFormat(t *testing.T) {
	token, err := GenerateApprovalToken()
	require.NoError(t, err)

	assert.Len(t, token, ApprovalTokenBytes*2)
	_, err = hex.DecodeString(token)
	assert.NoError(t, err)
}

func TestGenerateApprovalTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := GenerateApprovalToken()
		require.NoError(t, err)

		_, dup := seen[token]
		require.False(t, dup, "token collision after %d tokens", i)
		seen[token] = struct{}{}
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	token, err := GenerateApprovalToken()
	require.NoError(t, err)

	first := HashToken(token)
	second := HashToken(token)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, token, first)

	other, err := GenerateApprovalToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, HashToken(other))
}
