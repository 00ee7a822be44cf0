package hidkey_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zxbridge/zxbridge/hidkey"
)

func TestSnapshotWireRoundTrip(t *testing.T) {
	snap := hidkey.PressWith(hidkey.ModLeftShift|hidkey.ModRightAlt, hidkey.KeyQ, hidkey.KeyW, hidkey.KeyE)
	data, err := snap.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x44, 3, 0x14, 0x1A, 0x08}, data)

	var got hidkey.Snapshot
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, snap.Modifiers, got.Modifiers)
	assert.Equal(t, snap.Keys, got.Keys)
}

func TestSnapshotEmptyFrame(t *testing.T) {
	data, err := hidkey.Released().MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, data)

	var got hidkey.Snapshot
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Zero(t, got.Modifiers)
	assert.Empty(t, got.Keys)
}

func TestSnapshotMarshalTruncatesExtraKeys(t *testing.T) {
	snap := hidkey.Press(1, 2, 3, 4, 5, 6, 7, 8)
	data, err := snap.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, uint8(hidkey.MaxKeys), data[1])
	assert.Len(t, data, 2+hidkey.MaxKeys)
}

func TestSnapshotUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"header only", []byte{0}, io.ErrUnexpectedEOF},
		{"truncated keys", []byte{0, 3, 0x04}, io.ErrUnexpectedEOF},
		{"oversized count", []byte{0, 7, 1, 2, 3, 4, 5, 6, 7}, hidkey.ErrOversizedFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap hidkey.Snapshot
			assert.ErrorIs(t, snap.UnmarshalBinary(tt.data), tt.want)
		})
	}
}

func TestHolds(t *testing.T) {
	snap := hidkey.Press(hidkey.KeyA, hidkey.KeySpace)
	assert.True(t, snap.Holds(hidkey.KeyA))
	assert.True(t, snap.Holds(hidkey.KeySpace))
	assert.False(t, snap.Holds(hidkey.KeyB))
	assert.False(t, hidkey.Released().Holds(hidkey.KeyA))
}

func TestTypeChar(t *testing.T) {
	tests := []struct {
		char      byte
		code      uint8
		modifiers uint8
	}{
		{'a', hidkey.KeyA, 0},
		{'Z', hidkey.KeyZ, hidkey.ModLeftShift},
		{'5', hidkey.Key5, 0},
		{'!', hidkey.Key1, hidkey.ModLeftShift},
		{' ', hidkey.KeySpace, 0},
		{'"', hidkey.KeyApostrophe, hidkey.ModLeftShift},
	}
	for _, tt := range tests {
		snap, ok := hidkey.TypeChar(tt.char)
		require.True(t, ok, "char %q", tt.char)
		assert.Equal(t, []uint8{tt.code}, snap.Keys, "char %q", tt.char)
		assert.Equal(t, tt.modifiers, snap.Modifiers, "char %q", tt.char)
	}

	_, ok := hidkey.TypeChar(0x07)
	assert.False(t, ok, "characters outside the map report untypeable")
}

func TestName(t *testing.T) {
	assert.Equal(t, "A", hidkey.Name(hidkey.KeyA))
	assert.Equal(t, "F10", hidkey.Name(hidkey.KeyF10))
	assert.Equal(t, "0xE9", hidkey.Name(0xE9))
}
