package push

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T) (*Gateway, string, func()) {
	t.Helper()
	g := NewGateway(nil, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(g.ServeHTTP))
	return g, "ws" + strings.TrimPrefix(srv.URL, "http"), srv.Close
}

func TestGateway_WriterDeliversToClient(t *testing.T) {
	g, url, stop := newTestGateway(t)
	defer stop()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var c *client
	assert.Eventually(t, func() bool {
		g.mu.RLock()
		defer g.mu.RUnlock()
		for cl := range g.clients {
			c = cl
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond, "client must be registered after the handshake")

	payload := []byte(`{"token_id":"meme","price":"0.0001"}`)
	c.send <- payload

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	assert.NoError(t, err)
	assert.Equal(t, string(payload), string(msg))
}

func TestGateway_DisconnectReleasesWriter(t *testing.T) {
	g, url, stop := newTestGateway(t)
	defer stop()

	base := runtime.NumGoroutine()

	const cycles = 20
	for i := 0; i < cycles; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conn.Close()
	}

	assert.Eventually(t, func() bool {
		g.mu.RLock()
		n := len(g.clients)
		g.mu.RUnlock()
		return n == 0
	}, 2*time.Second, 10*time.Millisecond, "departed clients must leave the registry")

	// Every disconnect must take its writer down with it; without the close
	// in readPump's cleanup this stabilizes at base+cycles.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base+3
	}, 2*time.Second, 10*time.Millisecond, "writer goroutines leaked after disconnect")
}
