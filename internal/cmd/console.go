package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/zxbridge/zxbridge/bridge"
	"github.com/zxbridge/zxbridge/hidkey"
	"github.com/zxbridge/zxbridge/sim"
)

// Console drives an in-process bridge from terminal input and renders
// the live scan matrix. Terminals only report key presses, so each
// typed key is held for a fixed window and then auto-released.
type Console struct {
	Bridge   bridge.Config `embed:"" prefix:"bridge."`
	HoldTime time.Duration `help:"How long a typed key stays pressed in the matrix" default:"150ms"`
}

// press is one live key: its usage code, the modifiers it was typed
// with, and when it auto-releases.
type press struct {
	code    uint8
	mods    uint8
	expires time.Time
}

// Run is called by kong when the console command is executed.
func (c *Console) Run(logger *slog.Logger) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("console needs an interactive terminal")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	port := sim.NewPort()
	// Fake a running Z80: the monitor line toggles every microsecond so
	// the magic handshake can find its fetch edges.
	port.SetMonitor(func() bool {
		return time.Now().UnixNano()/int64(time.Microsecond)%2 == 0
	})
	br := bridge.New(c.Bridge, port, logger)

	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)

	var held []press
	frame := time.NewTicker(16 * time.Millisecond)
	defer frame.Stop()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC {
					close(quit)
					return nil
				}
				if p, ok := translateKey(ev); ok {
					p.expires = time.Now().Add(c.HoldTime)
					held = append(held, p)
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-frame.C:
			held = expire(held, time.Now())
			br.Cycle(buildSnapshot(held))
			c.render(screen, br, port)
		}
	}
}

// expire drops presses past their release time.
func expire(held []press, now time.Time) []press {
	live := held[:0]
	for _, p := range held {
		if p.expires.After(now) {
			live = append(live, p)
		}
	}
	return live
}

// buildSnapshot folds the live presses into one keyboard snapshot.
func buildSnapshot(held []press) hidkey.Snapshot {
	var snap hidkey.Snapshot
	for _, p := range held {
		snap.Modifiers |= p.mods
		if p.code != 0 && !snap.Holds(p.code) && len(snap.Keys) < hidkey.MaxKeys {
			snap.Keys = append(snap.Keys, p.code)
		}
	}
	return snap
}

// specialKeys maps tcell's non-rune keys to HID usage codes.
var specialKeys = map[tcell.Key]uint8{
	tcell.KeyEnter:      hidkey.KeyEnter,
	tcell.KeyEscape:     hidkey.KeyEscape,
	tcell.KeyBackspace:  hidkey.KeyBackspace,
	tcell.KeyBackspace2: hidkey.KeyBackspace,
	tcell.KeyTab:        hidkey.KeyTab,
	tcell.KeyDelete:     hidkey.KeyDelete,
	tcell.KeyRight:      hidkey.KeyRight,
	tcell.KeyLeft:       hidkey.KeyLeft,
	tcell.KeyDown:       hidkey.KeyDown,
	tcell.KeyUp:         hidkey.KeyUp,
	tcell.KeyF1:         hidkey.KeyF1,
	tcell.KeyF2:         hidkey.KeyF2,
	tcell.KeyF3:         hidkey.KeyF3,
	tcell.KeyF5:         hidkey.KeyF5,
	tcell.KeyF6:         hidkey.KeyF6,
	tcell.KeyF10:        hidkey.KeyF10,
	tcell.KeyF12:        hidkey.KeyF12,
}

// translateKey converts one terminal key event into a press.
func translateKey(ev *tcell.EventKey) (press, bool) {
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r > 0x7F {
			return press{}, false
		}
		snap, ok := hidkey.TypeChar(byte(r))
		if !ok {
			return press{}, false
		}
		p := press{mods: snap.Modifiers}
		if len(snap.Keys) > 0 {
			p.code = snap.Keys[0]
		}
		return p, true
	}
	if code, ok := specialKeys[ev.Key()]; ok {
		var mods uint8
		if ev.Modifiers()&tcell.ModShift != 0 {
			mods |= hidkey.ModLeftShift
		}
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			mods |= hidkey.ModLeftCtrl
		}
		if ev.Modifiers()&tcell.ModAlt != 0 {
			mods |= hidkey.ModLeftAlt
		}
		return press{code: code, mods: mods}, true
	}
	return press{}, false
}

// rowLegends labels the matrix rows in select-line order.
var rowLegends = [8]string{
	"CAP Z X C V",
	"A S D F G",
	"Q W E R T",
	"1 2 3 4 5",
	"0 9 8 7 6",
	"P O I U Y",
	"ENT L K J H",
	"SPC SYM M N B",
}

// render draws the matrix recovered from the published table, plus the
// auxiliary line states. Selecting a single row and complementing the
// table entry yields exactly that row's bits.
func (c *Console) render(screen tcell.Screen, br *bridge.Bridge, port *sim.Port) {
	screen.Clear()
	style := tcell.StyleDefault
	hot := tcell.StyleDefault.Foreground(tcell.ColorGreen)

	puts(screen, 0, 0, style, "zxbridge console: type to press keys, Ctrl-C to quit")

	table := br.Active()
	for row := 0; row < 8; row++ {
		// Scan this row through the responder path.
		port.SetSelect(0xFF &^ (1 << row))
		br.Respond()
		bits := ^port.Data()

		line := fmt.Sprintf("row %d  ", row)
		for bit := 0; bit < 5; bit++ {
			if bits&(1<<bit) != 0 {
				line += "# "
			} else {
				line += ". "
			}
		}
		line += " " + rowLegends[row]
		st := style
		if bits&0x1F != 0 {
			st = hot
		}
		puts(screen, 0, 2+row, st, line)
	}

	status := fmt.Sprintf("joystick:%v  led:%v  reset:%v  magic:%v  idle:%02X",
		br.JoystickMode(),
		port.Line(bridge.LineLED),
		port.Line(bridge.LineReset),
		port.Line(bridge.LineMagic),
		table[0xFF])
	puts(screen, 0, 11, style, status)

	screen.Show()
}

func puts(screen tcell.Screen, x, y int, style tcell.Style, s string) {
	for i, r := range s {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
