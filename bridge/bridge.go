// Package bridge owns the bridge's runtime state and its two execution
// contexts: the idle loop that turns keyboard snapshots into published
// response tables, and the strobe responder that serves the row-select
// bus from whichever table is currently active.
package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zxbridge/zxbridge/hidkey"
	"github.com/zxbridge/zxbridge/zxmatrix"
)

// Config tunes the bridge. The zero value is usable; unset fields take
// the defaults below.
type Config struct {
	// PollInterval is the idle-loop snapshot sampling period.
	PollInterval time.Duration `help:"Keyboard snapshot poll interval" default:"2ms" env:"ZXBRIDGE_POLL_INTERVAL"`
	// MagicHold is how long the magic line stays asserted.
	MagicHold time.Duration `help:"Magic button pulse width" default:"500ns" env:"ZXBRIDGE_MAGIC_HOLD"`
	// EdgeTimeout bounds the wait for a monitor-line edge during the
	// magic handshake. A Spectrum fetches instructions continuously, so
	// hitting this bound means the machine is absent or halted.
	EdgeTimeout time.Duration `help:"Bound on the bus-cycle monitor edge wait" default:"100ms" env:"ZXBRIDGE_EDGE_TIMEOUT"`
	// EdgePoll is the monitor-line sampling period during the edge wait.
	EdgePoll time.Duration `help:"Bus-cycle monitor poll interval" default:"100ns" env:"ZXBRIDGE_EDGE_POLL"`

	Clock Clock `kong:"-"`
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Millisecond
	}
	if c.MagicHold <= 0 {
		c.MagicHold = 500 * time.Nanosecond
	}
	if c.EdgeTimeout <= 0 {
		c.EdgeTimeout = 100 * time.Millisecond
	}
	if c.EdgePoll <= 0 {
		c.EdgePoll = 100 * time.Nanosecond
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
}

// Source supplies the latest keyboard snapshot. The second result is
// false when no keyboard data is available (device absent or no frames
// yet); the bridge then leaves the last published table active.
type Source interface {
	Latest() (hidkey.Snapshot, bool)
}

// Bridge holds the runtime state: the two response table slots, the
// active-table reference, and the sticky joystick mode flag. The idle
// loop is the only writer of the tables and the flag; the strobe
// responder only ever loads the active reference.
type Bridge struct {
	cfg    Config
	port   Port
	logger *slog.Logger

	tables [2]zxmatrix.Table
	active atomic.Pointer[zxmatrix.Table]

	joystick bool
}

// New builds a Bridge on the given port. Both table slots start compiled
// from an empty matrix (all entries 0xFF) so the responder always has a
// complete table to serve, even before the first cycle.
func New(cfg Config, port Port, logger *slog.Logger) *Bridge {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{cfg: cfg, port: port, logger: logger}
	b.tables[0].Compile(zxmatrix.Matrix{})
	b.tables[1].Compile(zxmatrix.Matrix{})
	b.active.Store(&b.tables[0])
	return b
}

// JoystickMode reports whether Sinclair joystick mode is active.
func (b *Bridge) JoystickMode() bool { return b.joystick }

// Active returns the currently published response table.
func (b *Bridge) Active() *zxmatrix.Table { return b.active.Load() }

// Cycle runs one idle-loop iteration against a sampled snapshot: build
// the matrix, settle the mode flag, compile the inactive table slot,
// publish it, and run the auxiliary signaling. Cycle must only be called
// from a single goroutine.
func (b *Bridge) Cycle(snap hidkey.Snapshot) {
	m, unmapped := zxmatrix.Build(snap, b.joystick)
	for _, code := range unmapped {
		b.logger.Warn("unmapped usb key", "code", hidkey.Name(code))
	}

	// The matrix above was built under the previous mode; a toggle seen
	// this cycle takes effect from the next one.
	b.joystick = zxmatrix.NextMode(m, b.joystick)

	spare := b.spare()
	spare.Compile(m)
	b.active.Store(spare)

	// Both lines are level-driven from this cycle's state: the LED
	// follows the published table, reset follows the virtual reset key.
	b.port.SetLine(LineLED, spare.AnyPressed())
	b.port.SetLine(LineReset, m.Test(zxmatrix.ZXReset))

	if m.Test(zxmatrix.ZXMagic) {
		if err := b.magicHandshake(); err != nil {
			b.logger.Warn("magic handshake abandoned", "error", err)
		}
	}
}

// spare returns the table slot the responder cannot currently observe.
func (b *Bridge) spare() *zxmatrix.Table {
	if b.active.Load() == &b.tables[0] {
		return &b.tables[1]
	}
	return &b.tables[0]
}

// Respond services one row-select strobe: index the active table by the
// select-line state, drive the result onto the data bus, and clear the
// pending condition. Nothing else belongs here; everything expensive
// already happened at compile time.
func (b *Bridge) Respond() {
	t := b.active.Load()
	b.port.WriteData(t[b.port.ReadSelect()])
	b.port.AckStrobe()
}

// ServeStrobes answers strobes until the context ends or the port's
// strobe channel closes. Each strobe runs to completion; there is no
// cancellation mid-service.
func (b *Bridge) ServeStrobes(ctx context.Context) error {
	strobes := b.port.Strobes()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-strobes:
			if !ok {
				return nil
			}
			b.Respond()
		}
	}
}

// Run drives the idle loop: sample the source every poll interval and
// run a cycle when keyboard data is present. When the source reports no
// data the last published table stays active, so held keys freeze
// rather than release when the keyboard goes away.
func (b *Bridge) Run(ctx context.Context, src Source) error {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if snap, ok := src.Latest(); ok {
				b.Cycle(snap)
			}
		}
	}
}
