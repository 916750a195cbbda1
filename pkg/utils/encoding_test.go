package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeData(t *testing.T) {
	raw, err := DecodeData("AQID", "base64")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)

	raw, err = DecodeData("Ldp", "base58")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)

	raw, err = DecodeDataField([]string{"AQID", "base64"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)

	_, err = DecodeData("AQID", "zstd")
	assert.Error(t, err)
	_, err = DecodeDataField(nil)
	assert.Error(t, err)
}

func TestIsValidSolanaAddress(t *testing.T) {
	assert.True(t, IsValidSolanaAddress("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"))
	assert.False(t, IsValidSolanaAddress("not-an-address"))
	assert.False(t, IsValidSolanaAddress("Ldp"))
}
