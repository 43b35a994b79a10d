package websocket

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// Prefixes of the text frames that report failures to the client.
const (
	apiErrorPrefix        = "API Error: "
	processingErrorPrefix = "Error: "
)

// Application close codes (4000-4999 are reserved for private use).
const (
	CloseReplaced = 4000
)

// WriteData is one outbound frame queued for the write pump.
type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

func textFrame(text string) WriteData {
	return WriteData{Type: websocket.TextMessage, Payload: []byte(text)}
}

// apiErrorFrame reports a recognizer failure.
func apiErrorFrame(err error) WriteData {
	return textFrame(apiErrorPrefix + err.Error())
}

// processingErrorFrame reports any other failure while handling a message.
func processingErrorFrame(format string, args ...interface{}) WriteData {
	return textFrame(processingErrorPrefix + fmt.Sprintf(format, args...))
}
