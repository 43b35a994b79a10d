// Command wsclient sends an audio file to a running relay and prints the
// transcripts it receives.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satriahrh/lisan/internal/auth"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "relay host:port")
	clientID := flag.String("id", fmt.Sprintf("cli-%d", time.Now().Unix()), "client identifier")
	file := flag.String("file", "sample_audio.webm", "audio file to send")
	chunk := flag.Int("chunk", 0, "send the file in frames of this many bytes (0 sends it whole)")
	wait := flag.Duration("wait", 10*time.Second, "how long to wait for transcripts")
	secret := flag.String("secret", os.Getenv("CLIENT_TOKEN_SECRET"), "token secret, when the relay requires one")
	flag.Parse()

	audio, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/" + *clientID}
	if *secret != "" {
		token, err := auth.GenerateClientToken([]byte(*secret), *clientID, time.Hour)
		if err != nil {
			log.Fatalf("Failed to generate client token: %v", err)
		}
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	log.Printf("connecting to %s", u.String())
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Println("read:", err)
				}
				return
			}
			fmt.Println(string(message))
		}
	}()

	for _, frame := range split(audio, *chunk) {
		if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			log.Fatalf("Failed to send audio: %v", err)
		}
		log.Printf("sent %d bytes", len(frame))
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
		return
	case <-interrupt:
		log.Println("interrupt")
	case <-time.After(*wait):
	}

	// Cleanly close the connection by sending a close message and then
	// waiting (with timeout) for the server to close the connection.
	err = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		log.Println("write close:", err)
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func split(data []byte, size int) [][]byte {
	if size <= 0 || size >= len(data) {
		return [][]byte{data}
	}
	var frames [][]byte
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		frames = append(frames, data[start:end])
	}
	return frames
}
