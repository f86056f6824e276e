// Package stream broadcasts presented frames as PNG over websocket
package stream

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lixenwraith/autozoom/engine"
)

const writeTimeout = 5 * time.Second

// Hub fans frames out to connected websocket clients.
// A client that falls behind skips frames instead of blocking the loop.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	encoder png.Encoder
}

type client struct {
	frames chan []byte
}

var _ engine.Presenter = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Present implements engine.Presenter. Encoding is skipped with no clients.
func (h *Hub) Present(frame *image.RGBA, _ engine.Status) error {
	if frame == nil || h.Clients() == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := h.encoder.Encode(&buf, frame); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data := buf.Bytes()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.frames <- data:
		default:
			// Replace the stale pending frame
			select {
			case <-c.frames:
			default:
			}
			select {
			case c.frames <- data:
			default:
			}
		}
	}
	return nil
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("stream clients: %d", n)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("stream clients: %d", n)
}

// Handler upgrades requests to websocket and streams frames until the client leaves
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Println(err)
			return
		}
		defer conn.CloseNow()

		// Clients only listen; CloseRead handles control frames and cancels on disconnect
		ctx := conn.CloseRead(r.Context())

		c := &client{frames: make(chan []byte, 1)}
		h.add(c)
		defer h.remove(c)

		for {
			select {
			case <-ctx.Done():
				return
			case data := <-c.frames:
				wctx, cancel := context.WithTimeout(ctx, writeTimeout)
				err := conn.Write(wctx, websocket.MessageBinary, data)
				cancel()
				if err != nil {
					log.Printf("stream write: %v", err)
					return
				}
			}
		}
	}
}

// Server builds an HTTP server exposing the hub at /ws
func (h *Hub) Server(ctx context.Context, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}
