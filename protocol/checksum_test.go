package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumStep(t *testing.T) {
	tests := []struct {
		name     string
		values   []uint32
		expected uint32
	}{
		{
			name:     "no steps",
			values:   nil,
			expected: CRCInitial,
		},
		{
			name:     "zero word",
			values:   []uint32{0x00000000},
			expected: 0x0000AEA0,
		},
		{
			name:     "one",
			values:   []uint32{0x00000001},
			expected: 0x00001FB3,
		},
		{
			name:     "all ones",
			values:   []uint32{0xFFFFFFFF},
			expected: 0x0000C1AE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := NewChecksum(0, 0)
			for _, v := range tt.values {
				crc.Step(v)
			}
			assert.Equalf(t, tt.expected, crc.Register(), "register = 0x%08X", crc.Register())
		})
	}
}

func TestChecksumRegisterStaysSixteenBits(t *testing.T) {
	crc := NewChecksum(0xAB, 0xCD)
	for i := uint32(0); i < 1000; i++ {
		crc.Step(i * 0x9E3779B9)
		require.Zero(t, crc.Register()&0xFFFF0000)
	}
}

func TestChecksumIndependentInstances(t *testing.T) {
	a := NewChecksum(0x10, 0x20)
	b := NewChecksum(0x10, 0x20)

	a.Step(0xDEADBEEF)
	b.Step(0xDEADBEEF)

	assert.Equal(t, a.Register(), b.Register())
}

func TestChecksumDigest(t *testing.T) {
	tests := []struct {
		name     string
		finalA   byte
		finalB   byte
		words    []uint32
		expected uint16
	}{
		{
			name:     "empty zero seeds",
			expected: 0x0A09,
		},
		{
			name:     "empty",
			finalA:   0x01,
			finalB:   0x02,
			expected: 0x9A5C,
		},
		{
			name:     "incrementing bytes",
			finalA:   0x01,
			finalB:   0x02,
			words:    []uint32{0x03020100, 0x07060504, 0x0B0A0908, 0x0F0E0D0C},
			expected: 0xE628,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := NewChecksum(tt.finalA, tt.finalB)
			for _, w := range tt.words {
				crc.Step(w)
			}
			digest, err := crc.Digest()
			require.NoError(t, err)
			assert.Equalf(t, tt.expected, digest, "digest = 0x%04X", digest)
		})
	}
}

func TestChecksumDigestIsDeterministic(t *testing.T) {
	run := func() uint16 {
		crc := NewChecksum(0x5A, 0xA5)
		for i := uint32(0); i < 64; i++ {
			crc.Step(i<<24 | i)
		}
		d, err := crc.Digest()
		require.NoError(t, err)
		return d
	}

	assert.Equal(t, run(), run())
}

func TestChecksumDigestOnce(t *testing.T) {
	crc := NewChecksum(1, 2)
	_, err := crc.Digest()
	require.NoError(t, err)

	reg := crc.Register()
	crc.Step(0x12345678)
	assert.Equal(t, reg, crc.Register(), "Step after Digest must not change the register")

	_, err = crc.Digest()
	assert.ErrorIs(t, err, ErrDigestConsumed)
}

func TestFinalizeStep(t *testing.T) {
	assert.Equal(t, uint32(0xFFFF0201), FinalizeStep(0x01, 0x02))
	assert.Equal(t, uint32(0xFFFFFFFF), FinalizeStep(0xFF, 0xFF))
}

func BenchmarkChecksumStep(b *testing.B) {
	crc := NewChecksum(0, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		crc.Step(uint32(i))
	}
}
