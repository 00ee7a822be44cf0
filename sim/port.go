// Package sim provides in-memory stand-ins for the bridge's hardware
// surface: a scriptable port and a manually advanced clock. They back
// the test suite, the interactive console, and the run command's default
// backend; a real GPIO port belongs in a platform layer outside this
// module.
package sim

import (
	"sync"

	"github.com/zxbridge/zxbridge/bridge"
)

// Port is a thread-safe simulated bridge.Port. Test code plays the host
// machine: set the select lines, inject strobes, script the monitor
// line, and inspect what the bridge drove back.
type Port struct {
	mu          sync.Mutex
	selectLines uint8
	data        uint8
	lines       map[bridge.Line]bool
	monitor     func() bool
	masked      bool
	pending     int
	strobes     chan struct{}
}

// NewPort returns a simulated port with all lines low and select lines
// idle (0xFF, no row selected).
func NewPort() *Port {
	return &Port{
		selectLines: 0xFF,
		lines:       make(map[bridge.Line]bool),
		strobes:     make(chan struct{}, 64),
	}
}

// SetSelect drives the simulated row-select input.
func (p *Port) SetSelect(b uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectLines = b
}

// Data returns the last value the bridge wrote to the data bus.
func (p *Port) Data() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}

// Line returns the state of one dedicated output line.
func (p *Port) Line(l bridge.Line) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines[l]
}

// SetMonitor installs the bus-cycle monitor waveform. The function is
// sampled on every ReadMonitor call, so tests can key it off a Clock.
func (p *Port) SetMonitor(f func() bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitor = f
}

// Strobe injects one row-select strobe. While strobes are masked the
// strobe is held pending and delivered on unmask, like an edge-triggered
// interrupt controller latching while disabled.
func (p *Port) Strobe() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.masked {
		p.pending++
		return
	}
	p.deliverLocked()
}

func (p *Port) deliverLocked() {
	select {
	case p.strobes <- struct{}{}:
	default:
		// Responder hopelessly behind; drop, as real hardware would
		// coalesce repeated edges into one pending interrupt.
	}
}

// ReadSelect implements bridge.Port.
func (p *Port) ReadSelect() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectLines
}

// WriteData implements bridge.Port.
func (p *Port) WriteData(b uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = b
}

// SetLine implements bridge.Port.
func (p *Port) SetLine(l bridge.Line, high bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines[l] = high
}

// ReadMonitor implements bridge.Port.
func (p *Port) ReadMonitor() bool {
	p.mu.Lock()
	f := p.monitor
	p.mu.Unlock()
	if f == nil {
		return false
	}
	return f()
}

// MaskStrobes implements bridge.Port.
func (p *Port) MaskStrobes() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.masked = true
}

// UnmaskStrobes implements bridge.Port. Strobes latched while masked are
// delivered as a single pending strobe.
func (p *Port) UnmaskStrobes() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.masked = false
	if p.pending > 0 {
		p.pending = 0
		p.deliverLocked()
	}
}

// Strobes implements bridge.Port.
func (p *Port) Strobes() <-chan struct{} { return p.strobes }

// AckStrobe implements bridge.Port. The simulated controller clears the
// pending condition on delivery, so this is a no-op kept for interface
// fidelity with edge-triggered hardware.
func (p *Port) AckStrobe() {}
