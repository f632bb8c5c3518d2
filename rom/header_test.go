package rom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHeader(t *testing.T) []byte {
	t.Helper()

	h := make([]byte, HeaderSize)
	copy(h[titleOffset:], "MULTIBOOT")
	copy(h[gameCodeOffset:], "AMBE")
	copy(h[makerCodeOffset:], "01")
	h[fixedValueOffset] = FixedValue
	h[versionOffset] = 2

	var sum byte
	for _, b := range h[titleOffset:complementOffset] {
		sum += b
	}
	h[complementOffset] = -sum - 0x19
	return h
}

func TestInfo(t *testing.T) {
	img, err := New(buildHeader(t))
	require.NoError(t, err)

	info := img.Info()
	assert.Equal(t, "MULTIBOOT", info.Title)
	assert.Equal(t, "AMBE", info.GameCode)
	assert.Equal(t, "01", info.MakerCode)
	assert.Equal(t, byte(FixedValue), info.FixedValue)
	assert.Equal(t, byte(2), info.Version)
	assert.True(t, info.ComplementValid())
}

func TestInfoBadComplement(t *testing.T) {
	h := buildHeader(t)
	h[complementOffset]++

	img, err := New(h)
	require.NoError(t, err)

	info := img.Info()
	assert.False(t, info.ComplementValid())
	assert.Equal(t, info.Complement-1, info.ComputedComplement())
}

func TestInfoZeroHeader(t *testing.T) {
	img, err := New(make([]byte, HeaderSize))
	require.NoError(t, err)

	info := img.Info()
	assert.Empty(t, info.Title)
	assert.Empty(t, info.GameCode)
	assert.False(t, HeaderInfo{}.ComplementValid())
}
