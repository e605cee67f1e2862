package base58

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase58_RoundTrip(t *testing.T) {
	addr := MustDecodeFromString("SysvarRent111111111111111111111111111111111")
	assert.Equal(t, "SysvarRent111111111111111111111111111111111", Encode(addr[:]))
}

func TestBase58_SystemProgramIsZero(t *testing.T) {
	addr, err := DecodeFromString("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, addr)
}

func TestBase58_WrongLength(t *testing.T) {
	_, err := DecodeFromString("3yZe7d")
	assert.Error(t, err)

	assert.Panics(t, func() { MustDecodeFromString("0OIl") })
}
