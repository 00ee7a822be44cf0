package bridge_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zxbridge/zxbridge/bridge"
	"github.com/zxbridge/zxbridge/hidkey"
	"github.com/zxbridge/zxbridge/sim"
)

// recordingPort wraps a sim.Port and records every SetLine call so
// tests can assert on pulse ordering, not just final line levels.
type recordingPort struct {
	*sim.Port
	events []lineEvent
}

type lineEvent struct {
	line bridge.Line
	high bool
}

func (p *recordingPort) SetLine(l bridge.Line, high bool) {
	p.events = append(p.events, lineEvent{l, high})
	p.Port.SetLine(l, high)
}

func magicEvents(events []lineEvent) []lineEvent {
	var out []lineEvent
	for _, e := range events {
		if e.line == bridge.LineMagic {
			out = append(out, e)
		}
	}
	return out
}

func TestMagicHandshakePulsesAfterFetchEdge(t *testing.T) {
	clock := sim.NewClock()
	port := &recordingPort{Port: sim.NewPort()}

	// Script one instruction fetch: the monitor line rises 1us into the
	// handshake and falls again at 2us.
	port.SetMonitor(func() bool {
		e := clock.Elapsed()
		return e >= 1*time.Microsecond && e < 2*time.Microsecond
	})

	cfg := bridge.Config{
		MagicHold:   500 * time.Nanosecond,
		EdgeTimeout: time.Millisecond,
		EdgePoll:    100 * time.Nanosecond,
		Clock:       clock,
	}
	br := bridge.New(cfg, port, slog.Default())

	br.Cycle(hidkey.Press(hidkey.KeyF10))

	events := magicEvents(port.events)
	require.Len(t, events, 2, "one assert and one release")
	assert.Equal(t, lineEvent{bridge.LineMagic, true}, events[0])
	assert.Equal(t, lineEvent{bridge.LineMagic, false}, events[1])
	assert.False(t, port.Line(bridge.LineMagic), "magic line released after the pulse")

	// The pulse can only start once the fetch edge has passed.
	assert.GreaterOrEqual(t, clock.Elapsed(), 2*time.Microsecond)
}

func TestMagicHandshakeTimesOutWithoutMachine(t *testing.T) {
	clock := sim.NewClock()
	port := &recordingPort{Port: sim.NewPort()}
	// Monitor stuck low: no Spectrum on the other end.

	h := newCountingHandler()
	cfg := bridge.Config{
		EdgeTimeout: 10 * time.Microsecond,
		EdgePoll:    time.Microsecond,
		Clock:       clock,
	}
	br := bridge.New(cfg, port, slog.New(h))

	br.Cycle(hidkey.Press(hidkey.KeyF10))

	assert.Empty(t, magicEvents(port.events), "no pulse without a fetch edge")
	assert.Equal(t, 1, h.count("magic handshake abandoned"))

	// Strobes must be unmasked again even after the abandoned wait.
	port.Strobe()
	select {
	case <-port.Strobes():
	default:
		t.Fatal("strobes still masked after handshake")
	}
}

func TestMagicHandshakeMasksStrobes(t *testing.T) {
	clock := sim.NewClock()
	port := sim.NewPort()

	strobed := false
	port.SetMonitor(func() bool {
		// A strobe lands mid-handshake; it must be latched, not lost,
		// and not delivered while masked.
		if !strobed {
			strobed = true
			port.Strobe()
		}
		e := clock.Elapsed()
		return e >= 1*time.Microsecond && e < 2*time.Microsecond
	})

	cfg := bridge.Config{
		MagicHold:   500 * time.Nanosecond,
		EdgeTimeout: time.Millisecond,
		EdgePoll:    100 * time.Nanosecond,
		Clock:       clock,
	}
	br := bridge.New(cfg, port, slog.Default())

	br.Cycle(hidkey.Press(hidkey.KeyF10))

	select {
	case <-port.Strobes():
		// Latched while masked, delivered on unmask.
	default:
		t.Fatal("strobe latched during the handshake was lost")
	}
}
