// Package viewer serves live world state over websockets. A browser
// front end connects, receives the world parameters once, and then a
// stream of per-tick frames it can draw. The protocol is one way: the
// viewer only reads from the simulation, and nothing a client sends
// can reach the world.
package viewer

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/alsterverse/labday-eat-big-screen-simulation/environment/blob"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message types sent to clients
const (
	ConfigMessage = "config"
	FrameMessage  = "frame"
)

// Update is one broadcast payload: the world frame for a tick together
// with the run counters the front end shows alongside it. Type is
// stamped by Broadcast.
type Update struct {
	Type    string     `json:"type"`
	Episode int        `json:"episode"`
	Epsilon float64    `json:"epsilon"`
	Frame   blob.Frame `json:"frame"`
}

// hello is the first message every client receives, carrying the
// world parameters it needs to scale the drawing
type hello struct {
	Type   string      `json:"type"`
	Config blob.Config `json:"config"`
}

// client is one connected websocket. Writes are serialized by the
// mutex since the hello message and broadcasts come from different
// goroutines.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Server broadcasts world updates to every connected client
type Server struct {
	config blob.Config

	mu      sync.Mutex
	clients map[*client]struct{}

	updates chan Update
}

// NewServer returns a running broadcast server for a world with the
// given config. Clients connect through Handler and updates are fed
// in through Broadcast.
func NewServer(config blob.Config) *Server {
	s := &Server{
		config:  config,
		clients: make(map[*client]struct{}),
		updates: make(chan Update, 64),
	}
	go s.run()
	return s
}

// Broadcast queues an update for every connected client. The update
// is dropped when the queue is full, so a slow client can skip frames
// but never stalls the simulation.
func (s *Server) Broadcast(u Update) {
	u.Type = FrameMessage
	select {
	case s.updates <- u:
	default:
	}
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// run drains the update queue, fanning each update out to every
// client and dropping clients whose connection has failed
func (s *Server) run() {
	for update := range s.updates {
		s.mu.Lock()
		list := make([]*client, 0, len(s.clients))
		for c := range s.clients {
			list = append(list, c)
		}
		s.mu.Unlock()

		for _, c := range list {
			if err := c.send(update); err != nil {
				log.Printf("viewer: client send error: %v", err)
				s.drop(c)
			}
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

// Handler returns the websocket endpoint. Each connection receives a
// config message and then every broadcast update until it closes.
// Inbound messages are read and discarded.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("viewer: upgrade: %v", err)
			return
		}

		c := &client{conn: conn}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()

		if err := c.send(hello{Type: ConfigMessage, Config: s.config}); err != nil {
			s.drop(c)
			return
		}

		// The read loop only detects the client going away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.drop(c)
	})
}

// ListenAndServe serves the websocket endpoint at /ws on addr,
// blocking for the lifetime of the server
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("viewer: could not listen on %v: %v", addr, err)
	}
	log.Printf("viewer listening on ws://%v/ws", listener.Addr())

	return http.Serve(listener, mux)
}
