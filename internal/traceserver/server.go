// Package traceserver implements the --serve trace-streaming side
// channel (SPEC_FULL.md §4.5, grounded on the ping/pong websocket
// broadcaster in pkg/api/raw_websocket.go): it exposes a loopback HTTP
// endpoint that upgrades to a websocket and pushes every rendered trace
// frame (internal/trace) to however many viewers are attached, instead
// of raw PTY bytes.
package traceserver

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server broadcasts rendered trace frames to every connected viewer. It
// satisfies trace.Sink, so an interpreter run wires it in exactly like
// any other sink.
type Server struct {
	mu       sync.Mutex
	viewers  map[*viewer]struct{}
	router   *mux.Router
	httpSrv  *http.Server
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// New builds a Server listening on addr, with a single "/trace"
// websocket route (mirroring the teacher's one-handler-per-mux pattern).
func New(addr string) *Server {
	s := &Server{
		viewers: map[*viewer]struct{}{},
		router:  mux.NewRouter(),
	}
	s.router.HandleFunc("/trace", s.handleWebSocket)
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}
	return s
}

// Start begins serving in the background. Callers should defer Close.
func (s *Server) Start() {
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[traceserver] listen: %v", err)
		}
	}()
}

// Close shuts the server down and disconnects every viewer.
func (s *Server) Close() error {
	s.mu.Lock()
	for v := range s.viewers {
		close(v.done)
	}
	s.mu.Unlock()
	return s.httpSrv.Close()
}

// WriteFrame satisfies trace.Sink: it fans the rendered frame out to
// every connected viewer as a text message.
func (s *Server) WriteFrame(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v := range s.viewers {
		select {
		case v.send <- []byte(text):
		default:
			// slow viewer; drop the frame rather than block the tick loop
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[traceserver] upgrade failed: %v", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, 256), done: make(chan struct{})}
	s.mu.Lock()
	s.viewers[v] = struct{}{}
	s.mu.Unlock()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go s.writer(v)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.disconnect(v)
}

func (s *Server) writer(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer v.conn.Close()

	for {
		select {
		case msg, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-v.done:
			return
		}
	}
}

func (s *Server) disconnect(v *viewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.viewers[v]; ok {
		delete(s.viewers, v)
		close(v.done)
	}
}
