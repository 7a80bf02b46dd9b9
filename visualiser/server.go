// SPDX-License-Identifier: Unlicense OR MIT

package visualiser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

// Server serves a single debug page and pushes Stream frames to it over a
// websocket, grounded on the teacher pack's server/fastview/client.go: one
// client, a ping/pong liveness check, and a publish loop, all run as
// sibling goroutines under a single errgroup so any one of them failing
// (or the peer disconnecting) tears down the whole connection.
type Server struct {
	addr       string
	stream     *Stream
	resolution time.Duration
	pingPeriod time.Duration
	pongWait   time.Duration

	upgrader websocket.Upgrader
}

const (
	writeWait         = 1 * time.Second
	closeGracePeriod  = 1 * time.Second
	defaultResolution = 200 * time.Millisecond
	defaultPingPeriod = 400 * time.Millisecond
)

// ErrPongDeadlineExceeded is returned by a connection's ping/pong goroutine
// when the peer stops answering pings, matching the teacher pack's
// liveness-timeout error.
var ErrPongDeadlineExceeded = errors.New("visualiser: client disconnect, pong deadline exceeded")

// NewServer builds a debug server bound to addr (e.g. ":6060") that
// publishes stream's frames at most once per resolution (0 uses
// defaultResolution, matching the teacher pack's rate-limit constant).
func NewServer(addr string, stream *Stream, resolution time.Duration) *Server {
	if resolution <= 0 {
		resolution = defaultResolution
	}
	return &Server{
		addr:       addr,
		stream:     stream,
		resolution: resolution,
		pingPeriod: defaultPingPeriod,
		pongWait:   4 * defaultPingPeriod,
	}
}

// ListenAndServe blocks serving the debug index page at "/" and the frame
// stream at "/ws" until the process is interrupted or a fatal server error
// occurs.
func (s *Server) ListenAndServe() error {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
	if err := http.ListenAndServe(s.addr, r); err != nil {
		return fmt.Errorf("visualiser: serve: %w", err)
	}
	return nil
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, debugIndexHTML)
}

// safeSocket serializes writes to a *websocket.Conn shared by the
// ping/pong and publish goroutines; gorilla/websocket permits only one
// concurrent writer (reads are only ever done from readMessages, so they
// need no lock of their own).
type safeSocket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *safeSocket) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *safeSocket) writeControl(messageType int, data []byte, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(messageType, data, deadline)
}

func (s *safeSocket) close() {
	s.mu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.mu.Unlock()
	time.Sleep(closeGracePeriod)
	s.conn.Close()
}

// serveWebsocket upgrades the request and runs three goroutines under one
// errgroup (read, ping/pong, publish); the first to return ends the
// connection and the others are cancelled via groupCtx.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("visualiser: websocket upgrade:", err)
		return
	}
	sock := &safeSocket{conn: conn}
	defer sock.close()

	group, ctx := errgroup.WithContext(r.Context())
	group.Go(func() error { return s.readMessages(ctx, conn) })
	group.Go(func() error { return s.pingPong(ctx, sock) })
	group.Go(func() error { return s.publish(ctx, sock) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Println("visualiser: connection closed:", err)
	}
}

// readMessages only exists to detect the peer closing the connection; this
// server never reads client commands, its debug view is output-only.
func (s *Server) readMessages(ctx context.Context, conn *websocket.Conn) error {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// pingPong pings the peer on a ticker and fails the group if no pong
// arrives within pongWait, the same liveness check shape as the teacher
// pack's client.pingPong.
func (s *Server) pingPong(ctx context.Context, sock *safeSocket) error {
	pong := make(chan struct{}, 1)
	sock.conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	ticker := channerics.NewTicker(ctx.Done(), s.pingPeriod)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			if time.Since(lastPong) > s.pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := sock.writeControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("visualiser: ping: %w", err)
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

// publish polls the stream on a ticker and pushes each frame as JSON,
// matching the teacher pack's rate-limited publish loop.
func (s *Server) publish(ctx context.Context, sock *safeSocket) error {
	ticker := channerics.NewTicker(ctx.Done(), s.resolution)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			frame, err := s.stream.Poll()
			if err != nil {
				return fmt.Errorf("visualiser: stream poll: %w", err)
			}
			if err := sock.writeJSON(frame); err != nil {
				return fmt.Errorf("visualiser: write frame: %w", err)
			}
		}
	}
}

// marshalFrame is exposed for tests that want to confirm Frame survives a
// JSON round trip without a live websocket.
func marshalFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

const debugIndexHTML = `<!DOCTYPE html>
<html><head><title>phantasml debug view</title></head>
<body>
<pre id="out">connecting...</pre>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  document.getElementById("out").textContent = ev.data;
};
</script>
</body></html>`
