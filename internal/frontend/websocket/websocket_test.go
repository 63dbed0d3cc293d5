package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/dice"
	"github.com/cory-johannsen/dnddice/internal/params"
	"github.com/cory-johannsen/dnddice/internal/processor"
)

// fixedSource always rolls the same face.
type fixedSource struct{ face int }

func (s fixedSource) Intn(n int) int { return (s.face - 1) % n }

func newProcessor(t *testing.T) *processor.Processor {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := params.NewMapStore(map[string]string{"str": "3"})
	expander := params.NewExpander(store, logger, 0)
	roller := dice.NewRoller(fixedSource{face: 4}, logger, dice.DefaultLimits())
	return processor.New(expander, roller, logger)
}

// wireResponse mirrors Response on the client side, where values stay raw.
type wireResponse struct {
	Text    string `json:"text"`
	Results []struct {
		Original  string          `json:"original"`
		Expanded  string          `json:"expanded"`
		Trace     string          `json:"trace"`
		Value     json.RawMessage `json:"value"`
		Modifiers []string        `json:"modifiers"`
	} `json:"results"`
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHandler_ProcessesMessages(t *testing.T) {
	srv := httptest.NewServer(NewHandler(newProcessor(t), zaptest.NewLogger(t), nil))
	defer srv.Close()
	conn := dial(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hit 2d6+&str, save d20>10")))
	var resp wireResponse
	require.NoError(t, conn.ReadJSON(&resp))

	assert.Equal(t, "hit 2d6+&str, save d20>10", resp.Text)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "2d6+&str", resp.Results[0].Original)
	assert.Equal(t, "2d6+3", resp.Results[0].Expanded)
	assert.Equal(t, "11", string(resp.Results[0].Value))
	assert.Equal(t, `"Fail"`, string(resp.Results[1].Value))
}

func TestHandler_NoFormulas(t *testing.T) {
	srv := httptest.NewServer(NewHandler(newProcessor(t), zaptest.NewLogger(t), nil))
	defer srv.Close()
	conn := dial(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello there")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello there","results":[]}`, string(msg))
}

func TestHandler_MessageTooLarge(t *testing.T) {
	srv := httptest.NewServer(NewHandler(newProcessor(t), zaptest.NewLogger(t), nil))
	defer srv.Close()
	conn := dial(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("d", MaxMessageSize+1))))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(NewHandler(newProcessor(t), zaptest.NewLogger(t), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_ShutdownClosesSockets(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.WebSocketConfig{Path: "/roll"}
	server := NewServer(cfg, NewHandler(newProcessor(t), logger, nil), logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ctx, ln) }()

	conn := dial(t, "http://"+ln.Addr().String()+"/roll")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("d6")))
	var resp wireResponse
	require.NoError(t, conn.ReadJSON(&resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "1d6 [4] = 4", resp.Results[0].Trace)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("websocket server did not stop in time")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
