package zxmatrix

import "github.com/zxbridge/zxbridge/hidkey"

// Matrix is the 8-row scan matrix. Each byte holds the pressed-key bits
// for one row: bits 0-4 are the physical columns, bits 5-6 carry the
// virtual signals. A Matrix is rebuilt from scratch every cycle and
// never carries bits across cycles.
type Matrix [8]uint8

// Set sets the raw bit for a coordinate, ignoring its shift flags.
func (m *Matrix) Set(c Coord) {
	m[c.Row()] |= 1 << c.Bit()
}

// Test reports whether the raw bit for a coordinate is set.
func (m Matrix) Test(c Coord) bool {
	return m[c.Row()]&(1<<c.Bit()) != 0
}

// Press sets the coordinate's bit and, when the coordinate carries a
// forced shift flag, the corresponding shift key's bit too. Multiple
// keys landing on the same bit are idempotent.
func (m *Matrix) Press(c Coord) {
	m.Set(c)
	if c.NeedsCaps() {
		m.Set(ZXCaps)
	}
	if c.NeedsSym() {
		m.Set(ZXSym)
	}
}

// Build folds one keyboard snapshot into a fresh matrix. While joystick
// mode is active the four arrow keys land on their Sinclair joystick
// digits instead of the cursor mappings; every other key keeps its
// normal translation. Usage codes with no matrix correspondence are
// returned for the caller to report; they never fail the build.
func Build(snap hidkey.Snapshot, joystick bool) (Matrix, []uint8) {
	var m Matrix
	var unmapped []uint8

	for bit := uint8(0); bit < hidkey.ModifierCount; bit++ {
		if snap.Modifiers&(1<<bit) == 0 {
			continue
		}
		if c, ok := LookupModifier(bit); ok {
			m.Press(c)
		}
	}

	for _, code := range snap.Keys {
		if code < hidkey.KeyA {
			// Rollover/error markers, not keys.
			continue
		}
		if joystick {
			if c, ok := JoystickOverride(code); ok {
				m.Press(c)
				continue
			}
		}
		c, ok := Lookup(code)
		if !ok {
			unmapped = append(unmapped, code)
			continue
		}
		m.Press(c)
	}

	return m, unmapped
}

// NextMode derives the joystick mode flag from a freshly built matrix.
// The deactivate signal wins over the activate signal when both are
// present; with neither present the current flag is kept. This is the
// only state the bridge carries between cycles.
func NextMode(m Matrix, current bool) bool {
	switch {
	case m.Test(ZXCursorJoy):
		return false
	case m.Test(ZXSinclairJoy):
		return true
	default:
		return current
	}
}
