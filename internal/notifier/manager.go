package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/types"
)

// Manager is the hub that accepts websocket upgrades from connected
// clients (the bundler's dev-mode browser tab) and broadcasts an
// "update" message to all of them after every successful rebuild. It
// directly adapts the teacher's WebSocketManager hub pattern (register/
// unregister/broadcast channels, one coordinating goroutine) retargeted
// from arbitrary UpdateMessage payloads to the spec's fixed asset-update
// wire format.
type Manager struct {
	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn

	originValidator OriginValidator
	log             logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	isShutdown   bool
}

// NewManager creates a Manager and starts its hub goroutine. originValidator
// must not be nil; pass AllowAllOrigins{} to accept any origin.
func NewManager(originValidator OriginValidator, log logging.Logger) *Manager {
	if originValidator == nil {
		panic("notifier: originValidator cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		clients:         make(map[*websocket.Conn]*client),
		broadcast:       make(chan []byte, 256),
		register:        make(chan *client, 32),
		unregister:      make(chan *websocket.Conn, 32),
		originValidator: originValidator,
		log:             log.WithComponent("notifier"),
		ctx:             ctx,
		cancel:          cancel,
	}
	go m.runHub()
	return m
}

// ServeHTTP upgrades the request to a websocket connection and registers
// the client with the hub, satisfying http.Handler so a Manager can be
// mounted directly on the dev server's mux.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.isShutdown {
		http.Error(w, "notifier shut down", http.StatusServiceUnavailable)
		return
	}

	if origin := r.Header.Get("Origin"); origin != "" && !m.originValidator.IsAllowedOrigin(origin) {
		m.log.Warn(r.Context(), nil, "rejected websocket connection with disallowed origin", "origin", origin)
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		m.log.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	c := &client{
		conn:         conn,
		send:         make(chan []byte, 256),
		lastActivity: time.Now(),
		limiter:      newSlidingWindowLimiter(120, time.Minute),
	}

	select {
	case m.register <- c:
	case <-m.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "shutting down")
		return
	}

	go m.handleClient(c)
}

func (m *Manager) runHub() {
	for {
		select {
		case c := <-m.register:
			m.clientsMutex.Lock()
			m.clients[c.conn] = c
			m.clientsMutex.Unlock()
		case conn := <-m.unregister:
			m.clientsMutex.Lock()
			if c, ok := m.clients[conn]; ok {
				delete(m.clients, conn)
				close(c.send)
			}
			m.clientsMutex.Unlock()
			_ = conn.Close(websocket.StatusNormalClosure, "")
		case msg := <-m.broadcast:
			m.clientsMutex.RLock()
			targets := make([]*client, 0, len(m.clients))
			for _, c := range m.clients {
				targets = append(targets, c)
			}
			m.clientsMutex.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- msg:
				default:
					go func(conn *websocket.Conn) {
						select {
						case m.unregister <- conn:
						case <-m.ctx.Done():
						}
					}(c.conn)
				}
			}
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) handleClient(c *client) {
	defer func() {
		select {
		case m.unregister <- c.conn:
		case <-m.ctx.Done():
		}
	}()

	go m.writeToClient(c)
	m.readFromClient(c)
}

func (m *Manager) readFromClient(c *client) {
	for {
		ctx, cancel := context.WithTimeout(m.ctx, 60*time.Second)
		_, _, err := c.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}
		c.lastActivity = time.Now()
		if !c.limiter.Allow() {
			_ = c.conn.Close(websocket.StatusPolicyViolation, "rate limit exceeded")
			return
		}
	}
}

func (m *Manager) writeToClient(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		case <-m.ctx.Done():
			return
		}
	}
}

// BroadcastUpdate implements interfaces.Notifier: it packages the given
// asset events into the spec's update wire message and enqueues it for
// every connected client, dropping silently on a full buffer (a slow
// client never blocks a rebuild).
func (m *Manager) BroadcastUpdate(ctx context.Context, assets []types.AssetEvent) error {
	msg := updateMessage{Type: "update", Assets: make([]assetUpdate, 0, len(assets))}
	for _, ev := range assets {
		deps := make(map[string]uint64, len(ev.Deps))
		for specifier, id := range ev.Deps {
			deps[specifier] = uint64(id)
		}
		msg.Assets = append(msg.Assets, assetUpdate{
			ID:        uint64(ev.AssetID),
			Generated: ev.Generated,
			Deps:      deps,
		})
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal update message: %w", err)
	}

	select {
	case m.broadcast <- data:
	case <-m.ctx.Done():
		return fmt.Errorf("notifier is shut down")
	default:
		m.log.Warn(ctx, nil, "broadcast channel full, dropping update message")
	}
	return nil
}

// ConnectedClients returns the current number of connected clients.
func (m *Manager) ConnectedClients() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// Shutdown closes every client connection and stops the hub goroutine.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.isShutdown = true
		m.cancel()

		m.clientsMutex.Lock()
		for conn, c := range m.clients {
			close(c.send)
			_ = conn.Close(websocket.StatusNormalClosure, "server shutdown")
		}
		m.clients = make(map[*websocket.Conn]*client)
		m.clientsMutex.Unlock()
	})
	return nil
}
