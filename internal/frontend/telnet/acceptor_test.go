package telnet

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/testutil"
)

// echoHandler is a test SessionHandler that echoes lines back to the client.
type echoHandler struct {
	sessionCount atomic.Int32
}

func (h *echoHandler) HandleSession(_ context.Context, conn *Conn) error {
	h.sessionCount.Add(1)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "quit" {
			return conn.WriteLine("bye")
		}
		if err := conn.WriteLine("echo: " + line); err != nil {
			return err
		}
	}
}

// startAcceptor serves handler on a loopback listener and returns its address.
func startAcceptor(t *testing.T, handler SessionHandler) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	cfg := config.TelnetConfig{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	acc := NewAcceptor(cfg, handler, zaptest.NewLogger(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- acc.Serve(ctx, ln) }()
	return ln.Addr().String(), cancel, errCh
}

func TestAcceptor_ServeAndShutdown(t *testing.T) {
	handler := &echoHandler{}
	addr, cancel, errCh := startAcceptor(t, handler)

	client := testutil.NewTelnetClient(t, addr)
	client.Send("hello")
	assert.Contains(t, client.ReadUntil("echo: hello", 2*time.Second), "echo: hello")
	client.Send("quit")
	client.ReadUntil("bye", 2*time.Second)

	// An idle session is closed by shutdown.
	idle := testutil.NewTelnetClient(t, addr)
	idle.Send("ping")
	idle.ReadUntil("echo: ping", 2*time.Second)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("acceptor did not stop in time")
	}
	assert.Equal(t, int32(2), handler.sessionCount.Load())
}

func TestAcceptor_MultipleClients(t *testing.T) {
	handler := &echoHandler{}
	addr, cancel, errCh := startAcceptor(t, handler)
	defer func() {
		cancel()
		<-errCh
	}()

	const numClients = 3
	for i := 0; i < numClients; i++ {
		c := testutil.NewTelnetClient(t, addr)
		c.Send("quit")
		c.ReadUntil("bye", 2*time.Second)
		c.Close()
	}
	assert.Eventually(t, func() bool {
		return handler.sessionCount.Load() == numClients
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAcceptor_Addr(t *testing.T) {
	acc := NewAcceptor(config.TelnetConfig{}, &echoHandler{}, zaptest.NewLogger(t))
	assert.Empty(t, acc.Addr())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- acc.Serve(ctx, ln) }()
	defer func() {
		cancel()
		<-errCh
	}()

	assert.Eventually(t, func() bool { return acc.Addr() == ln.Addr().String() }, 2*time.Second, 10*time.Millisecond)
}

func TestAcceptor_ListenError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	port := taken.Addr().(*net.TCPAddr).Port
	acc := NewAcceptor(config.TelnetConfig{Host: "127.0.0.1", Port: port}, &echoHandler{}, zaptest.NewLogger(t))
	assert.Error(t, acc.ListenAndServe(context.Background()))
}
