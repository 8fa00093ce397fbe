package devicelink_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/facegate/internal/devicelink"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// board is a fake actuator board: it accepts WebSocket clients and records
// every text frame they send.
type board struct {
	srv      *httptest.Server
	accepted atomic.Int32
	received chan string

	// greeting, when set, is pushed to each client right after accept.
	greeting string
	// dropAfterFirst closes the connection after the first command.
	dropAfterFirst bool
}

func newBoard(t *testing.T, configure func(b *board)) *board {
	t.Helper()
	b := &board{received: make(chan string, 64)}
	if configure != nil {
		configure(b)
	}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		b.accepted.Add(1)
		defer conn.CloseNow()

		if b.greeting != "" {
			_ = conn.Write(r.Context(), websocket.MessageText, []byte(b.greeting))
		}
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			b.received <- string(data)
			if b.dropAfterFirst {
				return
			}
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *board) url() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/ws"
}

func (b *board) next(t *testing.T) string {
	t.Helper()
	select {
	case m := <-b.received:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("board received nothing")
		return ""
	}
}

func newClient(t *testing.T, url string) *devicelink.Client {
	t.Helper()
	c := devicelink.NewClient(devicelink.Config{URL: url, Timeout: 500 * time.Millisecond}, quietLogger())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSend_UnreachableEndpointReturnsFalse(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(dead.URL, "http") + "/ws"
	dead.Close()

	c := newClient(t, url)

	assert.False(t, c.Send(context.Background(), "open_door"))
	assert.False(t, c.IsConnected())
}

func TestSend_NonWebSocketEndpointReturnsFalse(t *testing.T) {
	plain := httptest.NewServer(http.NotFoundHandler())
	defer plain.Close()

	c := newClient(t, "ws"+strings.TrimPrefix(plain.URL, "http"))
	assert.False(t, c.Connect(context.Background()))
	assert.False(t, c.Send(context.Background(), "close_door"))
	assert.False(t, c.IsConnected())
}

func TestSend_ConnectsLazily(t *testing.T) {
	b := newBoard(t, nil)
	c := newClient(t, b.url())

	assert.False(t, c.IsConnected(), "no dial before the first send")
	assert.Zero(t, b.accepted.Load())

	require.True(t, c.Send(context.Background(), "open_door"))
	assert.Equal(t, "open_door", b.next(t))
	assert.True(t, c.IsConnected())

	require.True(t, c.Send(context.Background(), "turn_on_lamp"))
	assert.Equal(t, "turn_on_lamp", b.next(t))
	assert.EqualValues(t, 1, b.accepted.Load(), "connection is reused")
}

func TestSend_UnknownCommandTransmittedVerbatim(t *testing.T) {
	b := newBoard(t, nil)
	c := newClient(t, b.url())

	require.True(t, c.Send(context.Background(), "reboot please"))
	assert.Equal(t, "reboot please", b.next(t))
}

func TestSend_FailedWriteDropsConnection(t *testing.T) {
	b := newBoard(t, nil)
	c := newClient(t, b.url())

	require.True(t, c.Connect(context.Background()))
	require.True(t, c.IsConnected())

	expired, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, c.Send(expired, "open_door"))
	assert.False(t, c.IsConnected())

	require.True(t, c.Send(context.Background(), "close_door"))
	assert.Equal(t, "close_door", b.next(t))
	assert.EqualValues(t, 2, b.accepted.Load(), "next send dials again")
}

func TestSend_ReconnectsAfterBoardDrops(t *testing.T) {
	b := newBoard(t, func(b *board) { b.dropAfterFirst = true })
	c := newClient(t, b.url())
	ctx := context.Background()

	require.True(t, c.Send(ctx, "open_door"))
	assert.Equal(t, "open_door", b.next(t))

	require.Eventually(t, func() bool { return !c.IsConnected() }, 2*time.Second, 10*time.Millisecond,
		"client should notice the board hung up")

	require.True(t, c.Send(ctx, "close_door"))
	assert.Equal(t, "close_door", b.next(t))
	assert.EqualValues(t, 2, b.accepted.Load())
}

func TestSend_ConcurrentCallersShareOneConnection(t *testing.T) {
	b := newBoard(t, nil)
	c := newClient(t, b.url())

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Send(context.Background(), "turn_off_lamp") {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, ok.Load())
	assert.EqualValues(t, 1, b.accepted.Load())
	for i := 0; i < 10; i++ {
		assert.Equal(t, "turn_off_lamp", b.next(t))
	}
}

func TestTelemetry_LastBoardMessageKept(t *testing.T) {
	b := newBoard(t, func(b *board) { b.greeting = "27" })
	c := newClient(t, b.url())

	_, ok := c.LastTelemetry()
	assert.False(t, ok)

	require.True(t, c.Connect(context.Background()))
	require.Eventually(t, func() bool {
		tm, ok := c.LastTelemetry()
		return ok && tm.Message == "27"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClose_ThenSendRedials(t *testing.T) {
	b := newBoard(t, nil)
	c := newClient(t, b.url())
	ctx := context.Background()

	require.True(t, c.Send(ctx, "open_door"))
	b.next(t)
	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
	assert.NoError(t, c.Close(), "closing twice is harmless")

	require.True(t, c.Send(ctx, "close_door"))
	assert.Equal(t, "close_door", b.next(t))
	assert.EqualValues(t, 2, b.accepted.Load())
}
