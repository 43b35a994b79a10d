package websocket

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain/repositories"
	"github.com/satriahrh/lisan/internal/metrics"
)

// RelayConfig controls how each connection treats inbound audio.
type RelayConfig struct {
	// AudioConfig is sent unchanged with every recognition request.
	AudioConfig repositories.AudioConfig
	// MinChunkBytes is the smallest payload forwarded to the recognizer.
	MinChunkBytes int
	// RecognizeTimeout bounds each recognizer call. Zero disables it.
	RecognizeTimeout time.Duration
	// MaxMessageBytes is the read limit for one inbound frame.
	MaxMessageBytes int64
}

// DefaultAudioConfig is the recognition configuration browsers recording
// with MediaRecorder produce.
func DefaultAudioConfig(language string) repositories.AudioConfig {
	return repositories.AudioConfig{
		SampleRate:           48000,
		Encoding:             "WEBM_OPUS",
		Language:             language,
		Channels:             1,
		AutomaticPunctuation: true,
		ProfanityFilter:      false,
		Model:                "default",
		UseEnhanced:          true,
	}
}

// Hub maintains the set of active clients keyed by client identifier.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	sttRepo repositories.SpeechToText
	config  RelayConfig
	metrics *metrics.Metrics

	// ctx is the parent of every connection context; cancelled on Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	sttRepo repositories.SpeechToText,
	config RelayConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients: make(map[string]*Client),
		sttRepo: sttRepo,
		config:  config,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// register inserts the client, replacing and closing any previous
// connection under the same identifier.
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	previous, replaced := h.clients[client.clientID]
	h.clients[client.clientID] = client
	h.mu.Unlock()

	if replaced {
		h.logger.Info("Client replaced by newer connection",
			zap.String("clientID", client.clientID),
			zap.String("previousConnID", previous.connID),
			zap.String("connID", client.connID))
		previous.close(CloseReplaced, "replaced by newer connection")
	} else {
		h.metrics.ActiveConnections.Inc()
	}

	h.logger.Info("Client registered",
		zap.String("clientID", client.clientID),
		zap.String("connID", client.connID))
}

// unregister removes the client if it still owns its identifier.
// A connection that was replaced leaves the newer entry in place.
func (h *Hub) unregister(client *Client) bool {
	h.mu.Lock()
	current, ok := h.clients[client.clientID]
	removed := ok && current == client
	if removed {
		delete(h.clients, client.clientID)
	}
	h.mu.Unlock()

	if removed {
		h.metrics.ActiveConnections.Dec()
		h.logger.Info("Client unregistered",
			zap.String("clientID", client.clientID),
			zap.String("connID", client.connID))
	}
	return removed
}

// Remove deletes the entry for clientID and closes its connection.
// It is a no-op when the identifier is not registered.
func (h *Hub) Remove(clientID string) bool {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	h.metrics.ActiveConnections.Dec()
	client.close(closeNormal, "removed")
	h.logger.Info("Client removed", zap.String("clientID", clientID))
	return true
}

// Get returns the connection registered under clientID.
func (h *Hub) Get(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return client, ok
}

// Has reports whether clientID is registered.
func (h *Hub) Has(clientID string) bool {
	_, ok := h.Get(clientID)
	return ok
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Recognizer returns the backend used for every connection.
func (h *Hub) Recognizer() repositories.SpeechToText {
	return h.sttRepo
}

// Shutdown cancels in-flight recognitions and closes every live connection.
func (h *Hub) Shutdown() {
	h.cancel()

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.metrics.ActiveConnections.Dec()
		client.close(closeGoingAway, "server shutting down")
	}
	h.logger.Info("Hub shut down", zap.Int("closedConnections", len(clients)))
}
