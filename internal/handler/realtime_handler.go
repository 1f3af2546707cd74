package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/officehours-api/internal/service"
	"github.com/noah-isme/officehours-api/pkg/middleware/cors"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 512
)

type wsClient struct {
	account string
	conn    *websocket.Conn
	mu      sync.Mutex
}

func (cl *wsClient) write(messageType int, payload []byte) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteMessage(messageType, payload)
}

// Hub tracks websocket connections per account and delivers invalidation events.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*wsClient]struct{}
	upgrader websocket.Upgrader
	metrics  *service.MetricsService
	logger   *zap.Logger
}

// NewHub creates a hub accepting upgrades from allowedOrigins. An empty list allows any origin.
func NewHub(allowedOrigins []string, metrics *service.MetricsService, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return &Hub{
		clients: make(map[string]map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cors.Allowed(originSet, origin)
			},
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Serve godoc
// @Summary Subscribe to invalidation events
// @Description Upgrades to a websocket. Pass the access token as access_token when headers cannot be set.
// @Tags Realtime
// @Param access_token query string false "Access token"
// @Success 101
// @Failure 401 {object} response.Envelope
// @Router /ws [get]
func (h *Hub) Serve(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("account", claims.UserID), zap.Error(err))
		return
	}

	client := &wsClient{account: claims.UserID, conn: conn}
	h.register(client)
	defer h.unregister(client)

	done := make(chan struct{})
	defer close(done)
	go h.ping(client, done)

	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", zap.String("account", client.account), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) ping(client *wsClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.write(websocket.PingMessage, nil); err != nil {
				h.unregister(client)
				return
			}
		}
	}
}

// Deliver writes payload to every connection of accounts, or to all connections when accounts is nil.
// Connections that fail the write are dropped.
func (h *Hub) Deliver(accounts []string, payload []byte) error {
	targets := h.targets(accounts)

	var errs []error
	for _, client := range targets {
		if err := client.write(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("websocket delivery failed", zap.String("account", client.account), zap.Error(err))
			h.unregister(client)
			errs = append(errs, fmt.Errorf("deliver to %s: %w", client.account, err))
		}
	}
	return errors.Join(errs...)
}

// Connections returns the number of open connections for account.
func (h *Hub) Connections(account string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[account])
}

// Close drops every connection.
func (h *Hub) Close() {
	for _, client := range h.targets(nil) {
		h.unregister(client)
	}
}

func (h *Hub) targets(accounts []string) []*wsClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*wsClient
	if accounts == nil {
		for _, set := range h.clients {
			for client := range set {
				out = append(out, client)
			}
		}
		return out
	}
	for _, account := range accounts {
		for client := range h.clients[account] {
			out = append(out, client)
		}
	}
	return out
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	set, ok := h.clients[client.account]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.clients[client.account] = set
	}
	set[client] = struct{}{}
	h.mu.Unlock()
	h.metrics.AddWebsocketConnections(1)
}

func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	set, ok := h.clients[client.account]
	if ok {
		_, ok = set[client]
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.account)
		}
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	_ = client.conn.Close()
	h.metrics.AddWebsocketConnections(-1)
}
