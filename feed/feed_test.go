package feed_test

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zxbridge/zxbridge/feed"
	"github.com/zxbridge/zxbridge/hidkey"
)

func startServer(t *testing.T, cfg feed.ServerConfig) *feed.Server {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	srv := feed.NewServer(cfg, slog.Default(), nil)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			t.Errorf("feed server: %v", err)
		}
	}()
	t.Cleanup(func() { srv.Close() })

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("feed server never became ready")
	}
	return srv
}

func waitLatest(t *testing.T, srv *feed.Server, want hidkey.Snapshot) {
	t.Helper()
	require.Eventually(t, func() bool {
		got, ok := srv.Latest()
		return ok && got.Modifiers == want.Modifiers && len(got.Keys) == len(want.Keys)
	}, 5*time.Second, time.Millisecond)
}

func TestFeedRoundTrip(t *testing.T) {
	srv := startServer(t, feed.ServerConfig{})

	_, ok := srv.Latest()
	assert.False(t, ok, "no snapshot before a client sends one")

	cl, err := feed.Dial(context.Background(), srv.Addr().String(), nil)
	require.NoError(t, err)
	defer cl.Close()

	snap := hidkey.PressWith(hidkey.ModLeftShift, hidkey.KeyQ, hidkey.KeyP)
	require.NoError(t, cl.Send(snap))
	waitLatest(t, srv, snap)

	got, ok := srv.Latest()
	require.True(t, ok)
	assert.Equal(t, snap.Modifiers, got.Modifiers)
	assert.Equal(t, snap.Keys, got.Keys)
}

func TestFeedAbsentAfterDisconnect(t *testing.T) {
	srv := startServer(t, feed.ServerConfig{})

	cl, err := feed.Dial(context.Background(), srv.Addr().String(), nil)
	require.NoError(t, err)

	snap := hidkey.Press(hidkey.KeyA)
	require.NoError(t, cl.Send(snap))
	waitLatest(t, srv, snap)

	require.NoError(t, cl.Close())
	require.Eventually(t, func() bool {
		_, ok := srv.Latest()
		return !ok
	}, 5*time.Second, time.Millisecond, "snapshot must read absent once the client is gone")
}

func TestFeedAuth(t *testing.T) {
	srv := startServer(t, feed.ServerConfig{Key: "spectrum48"})

	cl, err := feed.Dial(context.Background(), srv.Addr().String(), &feed.ClientConfig{Key: "spectrum48"})
	require.NoError(t, err)
	defer cl.Close()

	snap := hidkey.Press(hidkey.KeyM)
	require.NoError(t, cl.Send(snap))
	waitLatest(t, srv, snap)
}

func TestFeedAuthWrongKey(t *testing.T) {
	srv := startServer(t, feed.ServerConfig{Key: "spectrum48"})

	cl, err := feed.Dial(context.Background(), srv.Addr().String(), &feed.ClientConfig{
		Key:          "zx81",
		WriteTimeout: 2 * time.Second,
	})
	if err == nil {
		cl.Close()
		t.Fatal("dial with the wrong key must fail the handshake")
	}
	// The server drops the connection on a bad proof, so the client sees
	// either the explicit auth error or the closed stream.
	_, ok := srv.Latest()
	assert.False(t, ok)
}

func TestFeedAuthMissingKey(t *testing.T) {
	srv := startServer(t, feed.ServerConfig{Key: "spectrum48"})

	// Raw connection with no handshake at all: the server must drop it
	// and never surface its frames.
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0x00, 0x01, byte(hidkey.KeyA)})
	require.NoError(t, err)

	buf := make([]byte, 1)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = conn.Read(buf)
	assert.Error(t, err, "server closes unauthenticated connections")

	_, ok := srv.Latest()
	assert.False(t, ok)
}

func TestFeedRejectsSecondClient(t *testing.T) {
	srv := startServer(t, feed.ServerConfig{})

	first, err := feed.Dial(context.Background(), srv.Addr().String(), nil)
	require.NoError(t, err)
	defer first.Close()

	snap := hidkey.Press(hidkey.KeyZ)
	require.NoError(t, first.Send(snap))
	waitLatest(t, srv, snap)

	second, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	buf := make([]byte, 1)
	_ = second.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = second.Read(buf)
	assert.Error(t, err, "second client is turned away")

	// The first client keeps working.
	snap2 := hidkey.Press(hidkey.KeyX)
	require.NoError(t, first.Send(snap2))
	require.Eventually(t, func() bool {
		got, ok := srv.Latest()
		return ok && got.Holds(hidkey.KeyX)
	}, 5*time.Second, time.Millisecond)
}

func TestFeedDropsOversizedFrame(t *testing.T) {
	srv := startServer(t, feed.ServerConfig{})

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// A frame claiming 7 keys exceeds the report size.
	_, err = conn.Write([]byte{0x00, 0x07, 1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)

	buf := make([]byte, 1)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = conn.Read(buf)
	assert.Error(t, err, "oversized frame drops the client")

	_, ok := srv.Latest()
	assert.False(t, ok)
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a, err := feed.DeriveKey("secret")
	require.NoError(t, err)
	b, err := feed.DeriveKey("secret")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	c, err := feed.DeriveKey("other")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
