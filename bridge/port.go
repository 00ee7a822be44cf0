package bridge

import "time"

// Line identifies one of the bridge's dedicated single-bit outputs.
// These lines are physically disjoint from the matrix select/data bus.
type Line uint8

const (
	// LineLED drives the activity LED: on while any key is pressed.
	LineLED Line = iota
	// LineReset drives the Spectrum's reset input, level-held while the
	// reset virtual key is down.
	LineReset
	// LineMagic pulses the NMI "magic button" input.
	LineMagic
)

func (l Line) String() string {
	switch l {
	case LineLED:
		return "led"
	case LineReset:
		return "reset"
	case LineMagic:
		return "magic"
	default:
		return "unknown"
	}
}

// Port is the narrow hardware surface the bridge drives. A platform
// layer supplies it; the core never touches registers directly.
//
// Strobe delivery: the port announces each row-select strobe on the
// Strobes channel. The bridge answers by reading the select lines,
// writing the data bus, and acknowledging. MaskStrobes suspends
// delivery; strobes arriving while masked are held pending, matching
// edge-triggered interrupt hardware.
type Port interface {
	// ReadSelect samples the 8-bit row-select input.
	ReadSelect() uint8
	// WriteData drives the 8-bit data output bus.
	WriteData(b uint8)
	// SetLine drives one of the dedicated single-bit outputs.
	SetLine(l Line, high bool)
	// ReadMonitor samples the bus-cycle monitor input (the Spectrum's
	// M1 instruction-fetch line).
	ReadMonitor() bool
	// MaskStrobes suspends strobe delivery; UnmaskStrobes resumes it.
	MaskStrobes()
	UnmaskStrobes()
	// Strobes yields one value per pending row-select strobe.
	Strobes() <-chan struct{}
	// AckStrobe clears the pending strobe condition after service.
	AckStrobe()
}

// Clock abstracts the timing used by the magic-button handshake so the
// edge wait and pulse hold can run against simulated time in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// systemClock is the default Clock, backed by the runtime timer.
type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
