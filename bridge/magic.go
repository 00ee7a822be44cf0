package bridge

import "errors"

// ErrEdgeTimeout is returned when the bus-cycle monitor line never
// produces the expected edge within the configured bound.
var ErrEdgeTimeout = errors.New("bridge: bus-cycle monitor edge wait timed out")

// magicHandshake emulates pressing the magic (NMI) button, synchronized
// to the Spectrum's instruction fetch so the pulse lands at a safe point
// in the bus cycle. Strobe delivery is masked for the whole handshake;
// this is the bridge's only intentional service gap and it is bounded by
// EdgeTimeout on each edge wait plus the pulse hold.
func (b *Bridge) magicHandshake() error {
	b.port.MaskStrobes()
	defer b.port.UnmaskStrobes()

	// Align to a full fetch cycle: rising edge, then falling.
	if err := b.waitMonitor(true); err != nil {
		return err
	}
	if err := b.waitMonitor(false); err != nil {
		return err
	}

	b.port.SetLine(LineMagic, true)
	b.cfg.Clock.Sleep(b.cfg.MagicHold)
	b.port.SetLine(LineMagic, false)
	return nil
}

// waitMonitor polls the monitor input until it reads level, bounded by
// the configured edge timeout.
func (b *Bridge) waitMonitor(level bool) error {
	deadline := b.cfg.Clock.Now().Add(b.cfg.EdgeTimeout)
	for b.port.ReadMonitor() != level {
		if b.cfg.Clock.Now().After(deadline) {
			return ErrEdgeTimeout
		}
		b.cfg.Clock.Sleep(b.cfg.EdgePoll)
	}
	return nil
}
