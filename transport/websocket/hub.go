package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/gobblet-backend/internal/usecase"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second
	maxMessageSize  = 512
)

// Hub pushes game snapshots to every connection watching that game.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// pings go out every pingPeriod; a peer silent for pongWait is dropped
	pongWait   time.Duration
	pingPeriod time.Duration

	mu    sync.RWMutex
	games map[string]map[*client]struct{}
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (that *client) write(messageType int, message []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(messageType, message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type HubOption func(*Hub)

// WithPongWait sets how long a silent peer is kept; pings go out at 9/10 of it.
func WithPongWait(wait time.Duration) HubOption {
	return func(that *Hub) {
		if wait > 0 {
			that.pongWait = wait
		}
	}
}

func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	hub := &Hub{
		logger: logger.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pongWait: defaultPongWait,
		games:    make(map[string]map[*client]struct{}),
	}

	for _, opt := range opts {
		opt(hub)
	}
	hub.pingPeriod = hub.pongWait * 9 / 10

	return hub
}

// ServeGame upgrades the request, sends initial and then every published
// snapshot of gameID until the peer goes away.
func (that *Hub) ServeGame(w http.ResponseWriter, r *http.Request, gameID string, initial *usecase.GameSnapshot) {
	log := that.logger.With("method", "ServeGame", "gameID", gameID)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	subscriber := &client{conn: conn}
	that.subscribe(gameID, subscriber)
	defer that.unsubscribe(gameID, subscriber)

	log.Debug("subscriber connected", "remote", r.RemoteAddr)

	if message, err := encodeState(initial); err != nil {
		log.Error("failed to encode snapshot", "error", err)
		return
	} else if err = subscriber.write(websocket.TextMessage, message); err != nil {
		log.Debug("failed to send initial snapshot", "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(that.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(that.pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go that.ping(subscriber, done)

	// clients only listen; reading is needed to notice close frames
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			log.Debug("subscriber disconnected", "error", err)
			return
		}
	}
}

// ping keeps the peer answering pongs until done is closed or a write fails.
func (that *Hub) ping(subscriber *client, done <-chan struct{}) {
	ticker := time.NewTicker(that.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := subscriber.write(websocket.PingMessage, nil); err != nil {
				that.logger.Debug("failed to ping subscriber", "error", err)
				return
			}
		}
	}
}

// Publish implements usecase.Publisher.
func (that *Hub) Publish(gameID string, snapshot *usecase.GameSnapshot) {
	message, err := encodeState(snapshot)
	if err != nil {
		that.logger.Error("failed to encode snapshot", "gameID", gameID, "error", err)
		return
	}

	that.mu.RLock()
	subscribers := make([]*client, 0, len(that.games[gameID]))
	for subscriber := range that.games[gameID] {
		subscribers = append(subscribers, subscriber)
	}
	that.mu.RUnlock()

	for _, subscriber := range subscribers {
		if err = subscriber.write(websocket.TextMessage, message); err != nil {
			that.logger.Debug("dropping subscriber", "gameID", gameID, "error", err)
			that.unsubscribe(gameID, subscriber)
		}
	}
}

// Subscribers is the number of live connections watching gameID.
func (that *Hub) Subscribers(gameID string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.games[gameID])
}

// Close drops every connection.
func (that *Hub) Close() {
	that.mu.Lock()
	games := that.games
	that.games = make(map[string]map[*client]struct{})
	that.mu.Unlock()

	for _, subscribers := range games {
		for subscriber := range subscribers {
			_ = subscriber.conn.Close()
		}
	}
}

func (that *Hub) subscribe(gameID string, subscriber *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[gameID]; !ok {
		that.games[gameID] = make(map[*client]struct{})
	}
	that.games[gameID][subscriber] = struct{}{}
}

func (that *Hub) unsubscribe(gameID string, subscriber *client) {
	that.mu.Lock()
	if subscribers, ok := that.games[gameID]; ok {
		delete(subscribers, subscriber)
		if len(subscribers) == 0 {
			delete(that.games, gameID)
		}
	}
	that.mu.Unlock()

	_ = subscriber.conn.Close()
}

func encodeState(snapshot *usecase.GameSnapshot) ([]byte, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	message, err := json.Marshal(Message{Action: ActionGameState, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return message, nil
}
