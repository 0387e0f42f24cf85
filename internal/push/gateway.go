// Package push streams live curve trade events to dashboard clients over
// WebSocket, bridging the NATS subjects the engine publishes on.
package push

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"curve-engine/internal/infrastructure"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Gateway fans curve trade events out to WebSocket subscribers. One NATS
// subscription exists per token with at least one listening client; it is
// torn down when the last client for that token leaves.
type Gateway struct {
	logger   *zap.Logger
	js       nats.JetStreamContext
	clients  map[*client]bool
	byToken  map[string]map[*client]bool
	natsSubs map[string]*nats.Subscription
	mu       sync.RWMutex
}

func NewGateway(js nats.JetStreamContext, logger *zap.Logger) *Gateway {
	return &Gateway{
		logger:   logger,
		js:       js,
		clients:  make(map[*client]bool),
		byToken:  make(map[string]map[*client]bool),
		natsSubs: make(map[string]*nats.Subscription),
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade websocket", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	g.mu.Lock()
	g.clients[c] = true
	g.mu.Unlock()
	infrastructure.WSConnections.Inc()

	go g.writePump(c)
	g.readPump(c)
}

func (g *Gateway) readPump(c *client) {
	defer func() {
		g.mu.Lock()
		delete(g.clients, c)
		for token, clients := range g.byToken {
			delete(clients, c)
			if len(clients) == 0 {
				g.dropTokenLocked(token)
			}
		}
		// The fan-out sends under mu too, so once the client is out of
		// byToken its channel can be closed without racing a send. Closing
		// it releases the paired writePump.
		close(c.send)
		g.mu.Unlock()
		infrastructure.WSConnections.Dec()
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var req struct {
			Action string `json:"action"` // "subscribe", "unsubscribe"
			Token  string `json:"token"`
		}
		if err := json.Unmarshal(message, &req); err != nil || req.Token == "" {
			continue
		}

		g.mu.Lock()
		switch req.Action {
		case "subscribe":
			if g.byToken[req.Token] == nil {
				g.byToken[req.Token] = make(map[*client]bool)
				if err := g.subscribeToken(req.Token); err != nil {
					g.logger.Error("failed to subscribe to token feed",
						zap.String("token", req.Token), zap.Error(err))
				}
			}
			g.byToken[req.Token][c] = true
		case "unsubscribe":
			if clients, ok := g.byToken[req.Token]; ok {
				delete(clients, c)
				if len(clients) == 0 {
					g.dropTokenLocked(req.Token)
				}
			}
		}
		g.mu.Unlock()
	}
}

func (g *Gateway) writePump(c *client) {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// dropTokenLocked removes a token's fan-out set and NATS subscription.
// Callers hold mu.
func (g *Gateway) dropTokenLocked(token string) {
	delete(g.byToken, token)
	if sub, ok := g.natsSubs[token]; ok {
		sub.Unsubscribe()
		delete(g.natsSubs, token)
		g.logger.Info("token feed closed, no clients left", zap.String("token", token))
	}
}

func (g *Gateway) subscribeToken(token string) error {
	subject := fmt.Sprintf("curve.trades.%s", token)
	sub, err := g.js.Subscribe(subject, func(msg *nats.Msg) {
		g.mu.RLock()
		for c := range g.byToken[token] {
			select {
			case c.send <- msg.Data:
			default:
				// Do not block, just drop if the client is slow.
			}
		}
		g.mu.RUnlock()
		msg.Ack()
	}, nats.ManualAck())

	if err != nil {
		return err
	}

	g.natsSubs[token] = sub
	g.logger.Info("token feed opened", zap.String("token", token))
	return nil
}
