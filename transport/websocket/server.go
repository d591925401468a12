package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16

	shutdownTimeout = 5 * time.Second
)

type gameStore interface {
	PlayerMove(ctx context.Context, squareID int) error
	Reset(ctx context.Context) error
	NewRound(ctx context.Context) error
	Game(ctx context.Context) (entity.DerivedGame, error)
	Stats(ctx context.Context) (entity.Stats, error)
}

type observerMetrics interface {
	ObserverConnected()
	ObserverDisconnected()
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	// set by Render; guarded by clientsMutex
	rendered bool
}

// Server - keeps passive observers up to date and accepts game commands from them.
// It is a renderer: state is pushed only from Render, never from command handlers.
type Server struct {
	logger   *slog.Logger
	store    gameStore
	metrics  observerMetrics
	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, c *client, msg *Message) error

	clientsMutex sync.RWMutex
	clients      map[*client]struct{}
}

func New(logger *slog.Logger, store gameStore, metrics observerMetrics) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		store:   store,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}

	server.handlers = map[string]func(context.Context, *client, *Message) error{
		actionState:    server.handleState,
		actionTurn:     server.handleTurn,
		actionReset:    server.handleReset,
		actionNewRound: server.handleNewRound,
	}

	return server
}

func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}

		that.closeClients()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Render - pushes the state to every connected observer.
func (that *Server) Render(_ context.Context, game entity.DerivedGame, stats entity.Stats) {
	log := that.logger.With("method", "Render")

	message, err := encodeMessage(actionState, statePayload(game, stats))
	if err != nil {
		log.Error("failed to encode state", "error", err)
		return
	}

	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	for c := range that.clients {
		c.rendered = true
		that.enqueue(c, message)
	}
}

func (that *Server) Observers() int {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	return len(that.clients)
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	that.addClient(c)
	log.Info("WebSocket connection established")

	go that.writePump(c)

	if err = that.sendInitialState(ctx, c); err != nil {
		log.Error("failed to send initial state", "error", err)
	}

	that.readPump(ctx, c)
}

// readPump - processes messages from the client until the connection is closed.
func (that *Server) readPump(ctx context.Context, c *client) {
	log := that.logger.With("method", "readPump")

	defer that.removeClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, reqBody, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			that.sendError(c, "", "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(c, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Server) addClient(c *client) {
	that.clientsMutex.Lock()
	that.clients[c] = struct{}{}
	that.clientsMutex.Unlock()

	that.metrics.ObserverConnected()
}

func (that *Server) removeClient(c *client) {
	that.clientsMutex.Lock()
	_, ok := that.clients[c]
	if ok {
		delete(that.clients, c)
		close(c.send)
	}
	that.clientsMutex.Unlock()

	if ok {
		that.metrics.ObserverDisconnected()
	}
}

func (that *Server) closeClients() {
	that.clientsMutex.RLock()
	clients := make([]*client, 0, len(that.clients))
	for c := range that.clients {
		clients = append(clients, c)
	}
	that.clientsMutex.RUnlock()

	for _, c := range clients {
		that.removeClient(c)
	}
}

// enqueue - the caller must hold clientsMutex for writing. Every state message is a full
// snapshot, so a client that cannot keep up loses its oldest queued messages.
func (that *Server) enqueue(c *client, message []byte) {
	for {
		select {
		case c.send <- message:
			return
		default:
		}

		select {
		case <-c.send:
			that.logger.Warn("dropping oldest message for slow observer")
		default:
		}
	}
}
