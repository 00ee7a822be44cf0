package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zxbridge/zxbridge/bridge"
	"github.com/zxbridge/zxbridge/feed"
	"github.com/zxbridge/zxbridge/internal/log"
	"github.com/zxbridge/zxbridge/sim"
)

// Run is the bridge daemon command: it serves the snapshot feed, runs
// the idle loop against it, and answers row-select strobes.
type Run struct {
	Feed   feed.ServerConfig `embed:"" prefix:"feed."`
	Bridge bridge.Config     `embed:"" prefix:"bridge."`

	Backend  string        `help:"Hardware port backend; sim is built in, real ports come from a platform layer" enum:"sim" default:"sim"`
	ScanRate time.Duration `help:"Sim backend: interval of the emulated ULA row scan; 0 disables" default:"20ms" env:"ZXBRIDGE_SCAN_RATE"`
}

// Run is called by kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, trace log.TraceLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.start(ctx, logger, trace)
}

func (r *Run) start(ctx context.Context, logger *slog.Logger, trace log.TraceLogger) error {
	port := sim.NewPort()
	br := bridge.New(r.Bridge, port, logger)
	srv := feed.NewServer(r.Feed, logger, trace)

	logger.Info("starting zxbridge", "backend", r.Backend, "feed", r.Feed.Addr)

	feedErr := make(chan error, 1)
	go func() { feedErr <- srv.ListenAndServe() }()

	select {
	case err := <-feedErr:
		return err
	case <-srv.Ready():
	}

	respErr := make(chan error, 1)
	go func() { respErr <- br.ServeStrobes(ctx) }()

	if r.ScanRate > 0 {
		// The sim backend has no ULA; emulate its row scan so the
		// responder path is exercised end to end.
		go r.scanLoop(ctx, port)
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- br.Run(ctx, srv) }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		<-loopErr
		<-respErr
		<-feedErr
		logger.Info("zxbridge stopped")
		return nil
	case err := <-feedErr:
		return err
	}
}

// scanLoop strobes the eight single-row select patterns in turn, the way
// the Spectrum ULA walks the half-rows during its keyboard scan.
func (r *Run) scanLoop(ctx context.Context, port *sim.Port) {
	ticker := time.NewTicker(r.ScanRate)
	defer ticker.Stop()
	row := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			port.SetSelect(0xFF &^ (1 << row))
			port.Strobe()
			row = (row + 1) % 8
		}
	}
}
