package server_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/netsort/distsort/internal/logging"
	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/server"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	mu    sync.Mutex
	count int
}

func (h *countingHandler) Handle(conn net.Conn) {
	defer conn.Close()
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
	buf := make([]byte, 16)
	_, _ = conn.Read(buf)
}

func (h *countingHandler) seen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func TestServerAcceptsAndShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &countingHandler{}
	reg := registry.New(logging.Discard())
	s := server.New(h, reg, logging.Discard())

	started := make(chan error, 1)
	go func() { started <- s.Start("127.0.0.1:0") }()

	// Give Start a moment to bind before Shutdown races it.
	time.Sleep(50 * time.Millisecond)
	s.Shutdown()

	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServerHandlesConnection(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &countingHandler{}
	reg := registry.New(logging.Discard())
	s := server.New(h, reg, logging.Discard())

	addrCh := make(chan string, 1)
	startedErr := make(chan error, 1)
	go func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addrCh <- ln.Addr().String()
		ln.Close()
		startedErr <- s.Start(ln.Addr().String())
	}()
	addr := <-addrCh
	time.Sleep(50 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, _ = conn.Write([]byte("hi"))
	conn.Close()

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, h.seen())

	s.Shutdown()
	<-startedErr
}

func TestServerUptimeAdvances(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &countingHandler{}
	reg := registry.New(logging.Discard())
	s := server.New(h, reg, logging.Discard())

	started := make(chan struct{})
	go func() { _ = s.Start("127.0.0.1:0"); close(started) }()
	time.Sleep(50 * time.Millisecond)

	first := s.Uptime()
	time.Sleep(20 * time.Millisecond)
	require.Greater(t, s.Uptime(), first)

	s.Shutdown()
	<-started
}
