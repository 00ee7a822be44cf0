package zxmatrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zxbridge/zxbridge/hidkey"
	"github.com/zxbridge/zxbridge/zxmatrix"
)

func TestBuildPressRelease(t *testing.T) {
	m, unmapped := zxmatrix.Build(hidkey.Press(hidkey.KeyA), false)
	require.Empty(t, unmapped)
	assert.True(t, m.Test(zxmatrix.ZXA))

	// Releasing restores an all-clear matrix: nothing carries over.
	m, _ = zxmatrix.Build(hidkey.Released(), false)
	assert.Equal(t, zxmatrix.Matrix{}, m)
}

func TestBuildForcedShifts(t *testing.T) {
	tests := []struct {
		name string
		snap hidkey.Snapshot
		want []zxmatrix.Coord
	}{
		{
			name: "minus forces symbol shift",
			snap: hidkey.Press(hidkey.KeyMinus),
			want: []zxmatrix.Coord{zxmatrix.ZXJ, zxmatrix.ZXSym},
		},
		{
			name: "backspace forces caps shift",
			snap: hidkey.Press(hidkey.KeyBackspace),
			want: []zxmatrix.Coord{zxmatrix.ZX0, zxmatrix.ZXCaps},
		},
		{
			name: "arrow is caps plus digit",
			snap: hidkey.Press(hidkey.KeyLeft),
			want: []zxmatrix.Coord{zxmatrix.ZX5, zxmatrix.ZXCaps},
		},
		{
			name: "alt is both shifts",
			snap: hidkey.PressWith(hidkey.ModLeftAlt),
			want: []zxmatrix.Coord{zxmatrix.ZXSym, zxmatrix.ZXCaps},
		},
		{
			name: "ctrl is symbol shift",
			snap: hidkey.PressWith(hidkey.ModRightCtrl),
			want: []zxmatrix.Coord{zxmatrix.ZXSym},
		},
		{
			name: "shift is caps shift",
			snap: hidkey.PressWith(hidkey.ModLeftShift),
			want: []zxmatrix.Coord{zxmatrix.ZXCaps},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, unmapped := zxmatrix.Build(tt.snap, false)
			require.Empty(t, unmapped)

			var want zxmatrix.Matrix
			for _, c := range tt.want {
				want.Set(c)
			}
			assert.Equal(t, want, m)
		})
	}
}

func TestBuildIdempotentBits(t *testing.T) {
	// Keypad 1 and top-row 1 land on the same key; keypad minus and
	// minus share both base and shift bits.
	single, _ := zxmatrix.Build(hidkey.Press(hidkey.Key1), false)
	double, _ := zxmatrix.Build(hidkey.Press(hidkey.Key1, hidkey.KeyKp1), false)
	assert.Equal(t, single, double)

	m1, _ := zxmatrix.Build(hidkey.Press(hidkey.KeyMinus), false)
	m2, _ := zxmatrix.Build(hidkey.Press(hidkey.KeyMinus, hidkey.KeyKpMinus), false)
	assert.Equal(t, m1, m2)
}

func TestBuildJoystickOverride(t *testing.T) {
	// Mode off: right arrow is the cursor mapping, caps+8.
	m, _ := zxmatrix.Build(hidkey.Press(hidkey.KeyRight), false)
	assert.True(t, m.Test(zxmatrix.ZX8))
	assert.True(t, m.Test(zxmatrix.ZXCaps))

	// Mode on: right arrow is joystick digit 7, and nothing else.
	m, _ = zxmatrix.Build(hidkey.Press(hidkey.KeyRight), true)
	var want zxmatrix.Matrix
	want.Set(zxmatrix.ZX7)
	assert.Equal(t, want, m)
}

func TestBuildJoystickLeavesOtherKeysAlone(t *testing.T) {
	// Only the four arrows are reinterpreted; letters keep their keys.
	m, _ := zxmatrix.Build(hidkey.Press(hidkey.KeyW), true)
	var want zxmatrix.Matrix
	want.Set(zxmatrix.ZXW)
	assert.Equal(t, want, m)
}

func TestBuildUnmapped(t *testing.T) {
	m, unmapped := zxmatrix.Build(hidkey.Press(hidkey.KeyF9), false)
	assert.Equal(t, []uint8{hidkey.KeyF9}, unmapped)
	assert.Equal(t, zxmatrix.Matrix{}, m, "unmapped key must not disturb the matrix")
}

func TestBuildIgnoresRolloverMarkers(t *testing.T) {
	// Report slots below KeyA are rollover/error markers.
	m, unmapped := zxmatrix.Build(hidkey.Press(0x01, 0x03), false)
	assert.Empty(t, unmapped)
	assert.Equal(t, zxmatrix.Matrix{}, m)
}

func TestNextMode(t *testing.T) {
	var none, activate, deactivate, both zxmatrix.Matrix
	activate.Set(zxmatrix.ZXSinclairJoy)
	deactivate.Set(zxmatrix.ZXCursorJoy)
	both.Set(zxmatrix.ZXSinclairJoy)
	both.Set(zxmatrix.ZXCursorJoy)

	tests := []struct {
		name    string
		m       zxmatrix.Matrix
		current bool
		want    bool
	}{
		{"activate", activate, false, true},
		{"deactivate", deactivate, true, false},
		{"sticky on", none, true, true},
		{"sticky off", none, false, false},
		{"deactivate wins over activate", both, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, zxmatrix.NextMode(tt.m, tt.current))
		})
	}
}

func TestVirtualBitsStayOffTheBus(t *testing.T) {
	// Virtual signals use data bits 5 and 6; the physical columns are
	// bits 0-4, so a held virtual key must not look like a key press.
	m, _ := zxmatrix.Build(hidkey.Press(hidkey.KeyF12), false)
	assert.True(t, m.Test(zxmatrix.ZXReset))
	for row := 0; row < 8; row++ {
		assert.Zero(t, m[row]&0x1F, "row %d has physical bits set", row)
	}
}
