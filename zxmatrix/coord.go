// Package zxmatrix implements the combinational heart of the bridge:
// translating USB usage codes into ZX Spectrum keyboard matrix positions,
// folding a held-key snapshot into the 8-row scan matrix, and compiling
// the matrix into the 256-entry response table served to the ULA's
// row-select strobe.
//
// ZX Spectrum keyboard layout, with the symbols reachable through the
// two Spectrum shift keys:
//
//	┌─────┬─────┬─────┬─────┬─────┬─────┬─────┬─────┬─────┬─────┐
//	│ 1 ! │ 2 @ │ 3 # │ 4 $ │ 5 % │ 6 & │ 7 ` │ 8 ( │ 9 ) │ 0 _ │
//	├─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┤
//	│ Q<= │ W<> │ E=> │ R < │ T > │  Y  │  U  │  I  │ O ; │ P " │
//	├─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┤
//	│  A  │  S  │  D  │  F  │  G  │ H ^ │ J - │ K + │ L = │ ENT │
//	├─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┼─────┤
//	│ CAP │ Z : │  X  │ C ? │ V / │ B * │ N , │ M . │ SYM │ SPC │
//	└─────┴─────┴─────┴─────┴─────┴─────┴─────┴─────┴─────┴─────┘
package zxmatrix

// Coord packs one matrix position into a byte: bits 5-3 hold the row,
// bits 2-0 the data bit. Bits 7 and 6 are not part of the position; they
// mark keys that only exist behind the Spectrum's Caps or Symbol shift,
// so pressing them must press the shift key too.
type Coord uint8

const (
	rowShift = 3
	rowMask  = 7
	bitMask  = 7

	// FlagCaps and FlagSym request the corresponding shift key be held
	// alongside the base position.
	FlagCaps Coord = 1 << 7
	FlagSym  Coord = 1 << 6

	// None marks a usage code with no matrix correspondence. The value
	// decodes to data bit 7, which no Spectrum key occupies.
	None Coord = 0xFF
)

// At builds a Coord from a row (0-7) and data bit index. Data bits 0-4
// are physical key columns; 5 and 6 are reserved for virtual signals.
func At(row, bit uint8) Coord {
	return Coord((row&rowMask)<<rowShift | bit&bitMask)
}

// Row returns the matrix row (0-7).
func (c Coord) Row() uint8 { return uint8(c>>rowShift) & rowMask }

// Bit returns the data bit index within the row.
func (c Coord) Bit() uint8 { return uint8(c) & bitMask }

// NeedsCaps reports whether the coordinate carries a forced Caps shift.
func (c Coord) NeedsCaps() bool { return c&FlagCaps != 0 }

// NeedsSym reports whether the coordinate carries a forced Symbol shift.
func (c Coord) NeedsSym() bool { return c&FlagSym != 0 }

// Base strips the shift flags, leaving the raw position.
func (c Coord) Base() Coord { return c &^ (FlagCaps | FlagSym) }

// Physical key positions.
const (
	ZX1 = Coord(3<<rowShift | 0)
	ZX2 = Coord(3<<rowShift | 1)
	ZX3 = Coord(3<<rowShift | 2)
	ZX4 = Coord(3<<rowShift | 3)
	ZX5 = Coord(3<<rowShift | 4)
	ZX6 = Coord(4<<rowShift | 4)
	ZX7 = Coord(4<<rowShift | 3)
	ZX8 = Coord(4<<rowShift | 2)
	ZX9 = Coord(4<<rowShift | 1)
	ZX0 = Coord(4<<rowShift | 0)

	ZXQ = Coord(2<<rowShift | 0)
	ZXW = Coord(2<<rowShift | 1)
	ZXE = Coord(2<<rowShift | 2)
	ZXR = Coord(2<<rowShift | 3)
	ZXT = Coord(2<<rowShift | 4)
	ZXY = Coord(5<<rowShift | 4)
	ZXU = Coord(5<<rowShift | 3)
	ZXI = Coord(5<<rowShift | 2)
	ZXO = Coord(5<<rowShift | 1)
	ZXP = Coord(5<<rowShift | 0)

	ZXA     = Coord(1<<rowShift | 0)
	ZXS     = Coord(1<<rowShift | 1)
	ZXD     = Coord(1<<rowShift | 2)
	ZXF     = Coord(1<<rowShift | 3)
	ZXG     = Coord(1<<rowShift | 4)
	ZXH     = Coord(6<<rowShift | 4)
	ZXJ     = Coord(6<<rowShift | 3)
	ZXK     = Coord(6<<rowShift | 2)
	ZXL     = Coord(6<<rowShift | 1)
	ZXEnter = Coord(6<<rowShift | 0)

	ZXCaps  = Coord(0<<rowShift | 0) // Caps shift
	ZXZ     = Coord(0<<rowShift | 1)
	ZXX     = Coord(0<<rowShift | 2)
	ZXC     = Coord(0<<rowShift | 3)
	ZXV     = Coord(0<<rowShift | 4)
	ZXB     = Coord(7<<rowShift | 4)
	ZXN     = Coord(7<<rowShift | 3)
	ZXM     = Coord(7<<rowShift | 2)
	ZXSym   = Coord(7<<rowShift | 1) // Symbol shift
	ZXSpace = Coord(7<<rowShift | 0)
)

// Caps-shifted extended functions (shift+digit on the Spectrum).
const (
	ZXEdit     = ZX1 | FlagCaps
	ZXCapsLock = ZX2 | FlagCaps
	ZXTrueVid  = ZX3 | FlagCaps
	ZXInvVid   = ZX4 | FlagCaps
	ZXLeft     = ZX5 | FlagCaps
	ZXDown     = ZX6 | FlagCaps
	ZXUp       = ZX7 | FlagCaps
	ZXRight    = ZX8 | FlagCaps
	ZXGraph    = ZX9 | FlagCaps
	ZXDelete   = ZX0 | FlagCaps
	ZXBreak    = ZXSpace | FlagCaps
	ZXExtMode  = ZXSym | FlagCaps
)

// Symbol-shifted punctuation.
const (
	ZXGrave = ZX7 | FlagSym // `
	ZXOpen  = ZX8 | FlagSym // (
	ZXClose = ZX9 | FlagSym // )

	ZXLess    = ZXR | FlagSym // <
	ZXGreater = ZXT | FlagSym // >
	ZXSemi    = ZXO | FlagSym // ;
	ZXQuote   = ZXP | FlagSym // "

	ZXMinus = ZXJ | FlagSym // -
	ZXPlus  = ZXK | FlagSym // +
	ZXEqual = ZXL | FlagSym // =

	ZXColon = ZXZ | FlagSym // :
	ZXSlash = ZXV | FlagSym // /
	ZXStar  = ZXB | FlagSym // *
	ZXComma = ZXN | FlagSym // ,
	ZXDot   = ZXM | FlagSym // .
)

// Virtual signals. They occupy data bits 5 and 6, outside the 5-bit key
// columns, so they never reach the Spectrum's data bus. Reset and Magic
// drive dedicated output lines; CursorJoy and SinclairJoy toggle the
// Sinclair joystick interpretation of the arrow keys.
const (
	ZXReset       = Coord(0<<rowShift | 5)
	ZXMagic       = Coord(0<<rowShift | 6)
	ZXCursorJoy   = Coord(1<<rowShift | 5)
	ZXSinclairJoy = Coord(1<<rowShift | 6)
)
