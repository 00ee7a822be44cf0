package zxmatrix

import "github.com/zxbridge/zxbridge/hidkey"

// modifierMap translates boot-protocol modifier bits (by bit index) into
// matrix positions. Ctrl acts as Symbol shift, Shift as Caps shift, and
// Alt as both at once, which the Spectrum ROM reads as Extended mode.
// GUI lands on the digit-0 key so the report's every modifier bit has a
// defined target.
var modifierMap = [hidkey.ModifierCount]Coord{
	ZXSym,     // left Ctrl
	ZXCaps,    // left Shift
	ZXExtMode, // left Alt
	ZX0,       // left GUI
	ZXSym,     // right Ctrl
	ZXCaps,    // right Shift
	ZXExtMode, // right Alt
	ZX0,       // right GUI
}

// keyMap translates regular usage codes into matrix positions. Indexed
// directly by usage code; entries below hidkey.KeyA stay None because
// those report slots are rollover markers, not keys.
var keyMap = func() [0x100]Coord {
	var m [0x100]Coord
	for i := range m {
		m[i] = None
	}

	// Letters map to their own keys.
	letters := [...]Coord{
		ZXA, ZXB, ZXC, ZXD, ZXE, ZXF, ZXG, ZXH, ZXI, ZXJ, ZXK, ZXL, ZXM,
		ZXN, ZXO, ZXP, ZXQ, ZXR, ZXS, ZXT, ZXU, ZXV, ZXW, ZXX, ZXY, ZXZ,
	}
	for i, c := range letters {
		m[hidkey.KeyA+i] = c
	}

	// Digits map to the top row.
	digits := [...]Coord{ZX1, ZX2, ZX3, ZX4, ZX5, ZX6, ZX7, ZX8, ZX9, ZX0}
	for i, c := range digits {
		m[hidkey.Key1+i] = c
	}

	m[hidkey.KeyEnter] = ZXEnter
	m[hidkey.KeyEscape] = ZXBreak
	m[hidkey.KeyBackspace] = ZXDelete
	m[hidkey.KeyTab] = ZXEdit
	m[hidkey.KeySpace] = ZXSpace

	// Punctuation rides the Symbol shift.
	m[hidkey.KeyMinus] = ZXMinus
	m[hidkey.KeyEqual] = ZXEqual
	m[hidkey.KeyLeftBrace] = ZXOpen
	m[hidkey.KeyRightBrace] = ZXClose
	m[hidkey.KeyBackslash] = ZXColon
	m[hidkey.KeySemicolon] = ZXSemi
	m[hidkey.KeyApostrophe] = ZXQuote
	m[hidkey.KeyGrave] = ZXGrave
	m[hidkey.KeyComma] = ZXComma
	m[hidkey.KeyPeriod] = ZXDot
	m[hidkey.KeySlash] = ZXSlash

	// Function keys reach the caps-shifted extended functions.
	m[hidkey.KeyCapsLock] = ZXCapsLock
	m[hidkey.KeyF1] = ZXTrueVid
	m[hidkey.KeyF2] = ZXInvVid
	m[hidkey.KeyF3] = ZXGraph
	m[hidkey.KeyF5] = ZXCursorJoy
	m[hidkey.KeyF6] = ZXSinclairJoy
	m[hidkey.KeyF10] = ZXMagic
	m[hidkey.KeyF12] = ZXReset

	m[hidkey.KeyPrintScreen] = ZXPlus
	m[hidkey.KeyPause] = ZXPlus
	m[hidkey.KeyDelete] = ZXDelete

	// Arrows emulate the cursor keys (shift+5..8).
	m[hidkey.KeyRight] = ZXRight
	m[hidkey.KeyLeft] = ZXLeft
	m[hidkey.KeyDown] = ZXDown
	m[hidkey.KeyUp] = ZXUp

	// Keypad mirrors the top row and punctuation.
	m[hidkey.KeyKpSlash] = ZXSlash
	m[hidkey.KeyKpAsterisk] = ZXStar
	m[hidkey.KeyKpMinus] = ZXMinus
	m[hidkey.KeyKpPlus] = ZXPlus
	m[hidkey.KeyKpEnter] = ZXEnter
	kpDigits := [...]Coord{ZX1, ZX2, ZX3, ZX4, ZX5, ZX6, ZX7, ZX8, ZX9, ZX0}
	for i, c := range kpDigits {
		m[hidkey.KeyKp1+i] = c
	}
	m[hidkey.KeyKpDot] = ZXDot

	m[hidkey.KeyApplication] = ZX0

	return m
}()

// joystickMap overrides the four arrow keys while Sinclair joystick mode
// is active: right=7, left=6, down=8, up=9, matching the Sinclair
// Interface 2 digit assignments.
var joystickMap = map[uint8]Coord{
	hidkey.KeyRight: ZX7,
	hidkey.KeyLeft:  ZX6,
	hidkey.KeyDown:  ZX8,
	hidkey.KeyUp:    ZX9,
}

// Lookup returns the matrix coordinate for a regular usage code. The
// second result is false when the code has no matrix correspondence.
func Lookup(code uint8) (Coord, bool) {
	c := keyMap[code]
	return c, c != None
}

// LookupModifier returns the matrix coordinate for a modifier bit index
// (0-7, boot-protocol order).
func LookupModifier(bit uint8) (Coord, bool) {
	if bit >= hidkey.ModifierCount {
		return None, false
	}
	return modifierMap[bit], true
}

// JoystickOverride returns the Sinclair joystick coordinate for code, if
// code is one of the four arrow keys.
func JoystickOverride(code uint8) (Coord, bool) {
	c, ok := joystickMap[code]
	return c, ok
}
