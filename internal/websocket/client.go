package websocket

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain/repositories"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	closeNormal    = websocket.CloseNormalClosure
	closeGoingAway = websocket.CloseGoingAway
)

var upgrader = websocket.Upgrader{
	// The landing page may be served from another origin during development.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Client identifier taken from the request path.
	clientID string

	// connID distinguishes successive connections under one clientID.
	connID string

	// Cancelled when the read loop exits or the hub shuts down.
	ctx    context.Context
	cancel context.CancelFunc

	// done is closed once the connection should stop writing.
	done        chan struct{}
	closeOnce   sync.Once
	closeCode   int
	closeReason string

	logger *zap.Logger
}

// HandleWebSocket upgrades the request and runs the relay for clientID.
func HandleWebSocket(hub *Hub, c echo.Context, clientID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed",
			zap.String("clientID", clientID),
			zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(hub.ctx)
	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		clientID: clientID,
		connID:   uuid.New().String(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	client.logger = hub.logger.With(
		zap.String("clientID", client.clientID),
		zap.String("connID", client.connID))

	client.hub.register(client)

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// close asks the write pump to send a close frame and stop. Safe to call
// more than once; the first code wins.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

// enqueue hands a frame to the write pump unless the connection is closing.
func (c *Client) enqueue(data WriteData) bool {
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

// readPump receives audio payloads and relays transcripts until the
// connection ends.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.cancel()
		c.close(closeNormal, "")
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			} else {
				c.logger.Info("WebSocket disconnected", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		case websocket.TextMessage:
			c.logger.Warn("Received text frame, expected binary audio", zap.Int("size", len(message)))
			c.enqueue(processingErrorFrame("expected binary audio frame, got text"))
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}

		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump pumps messages from the relay to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				c.close(closeNormal, "")
				return
			}

		case <-c.done:
			c.drain()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(c.closeCode, c.closeReason))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close(closeNormal, "")
				return
			}
		}
	}
}

// drain flushes frames queued before the close was requested.
func (c *Client) drain() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				return
			}
		default:
			return
		}
	}
}

// processBinaryAudioChunk runs one payload through the recognizer and
// forwards every transcript in result order.
func (c *Client) processBinaryAudioChunk(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered panic while processing audio",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			c.enqueue(processingErrorFrame("%v", r))
		}
	}()

	c.hub.metrics.ChunksReceived.Inc()
	c.logger.Info("Received binary audio chunk", zap.Int("size", len(data)))

	if len(data) < c.hub.config.MinChunkBytes {
		c.hub.metrics.ChunksDropped.Inc()
		c.logger.Debug("Skipping audio chunk below minimum size",
			zap.Int("size", len(data)),
			zap.Int("minChunkBytes", c.hub.config.MinChunkBytes))
		return
	}

	transcripts, err := c.recognize(data)
	if err != nil {
		c.logger.Error("Speech recognition failed",
			zap.String("backend", err.Backend),
			zap.Error(err))
		c.enqueue(apiErrorFrame(err))
		return
	}

	for _, transcript := range transcripts {
		if !c.enqueue(textFrame(transcript)) {
			return
		}
		c.hub.metrics.TranscriptsSent.Inc()
	}
}

// recognize makes one recognizer call and returns the top transcript of
// every result that has alternatives. Any failure is reported as a
// RecognitionError carrying the backend's own message.
func (c *Client) recognize(data []byte) ([]string, *repositories.RecognitionError) {
	ctx := c.ctx
	if timeout := c.hub.config.RecognizeTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	backend := c.hub.sttRepo.Name()
	started := time.Now()
	recognition, err := c.hub.sttRepo.Recognize(ctx, data, c.hub.config.AudioConfig)
	c.hub.metrics.ObserveRecognition(backend, started, err)
	if err != nil {
		var recErr *repositories.RecognitionError
		if errors.As(err, &recErr) {
			backend = recErr.Backend
		}
		return nil, &repositories.RecognitionError{Backend: backend, Err: err}
	}

	if recognition == nil || len(recognition.Results) == 0 {
		c.logger.Warn("No transcription results received", zap.String("backend", backend))
		return nil, nil
	}

	transcripts := make([]string, 0, len(recognition.Results))
	for i, result := range recognition.Results {
		top, ok := result.Top()
		if !ok {
			c.logger.Warn("No alternatives in transcription result", zap.Int("result", i))
			continue
		}
		c.logger.Info("Transcribed audio",
			zap.String("transcript", top.Transcript),
			zap.Float32("confidence", top.Confidence))
		transcripts = append(transcripts, top.Transcript)
	}
	return transcripts, nil
}
