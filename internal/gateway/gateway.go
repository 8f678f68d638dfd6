// Package gateway pushes decoded cluster events to WebSocket
// subscribers.
//
// Clients connect, optionally send a filter message, and receive one
// JSON object per event:
//
//	{"events": ["SCHEMA_CHANGE", "STATUS_CHANGE"]}     client -> server
//	{"event": "SCHEMA_CHANGE", "change": "CREATED",
//	 "keyspace": "ks", "table": "t"}                   server -> client
//
// An empty or absent filter subscribes to every event type. Status and
// topology events carry "address" and "port" instead of keyspace and
// table.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/scylladb/go-set/strset"

	"cqlwire/internal/logging"
	"cqlwire/pkg/protocol"
)

const (
	readBufferSize  = 1024
	writeBufferSize = 4096
	writeTimeout    = 10 * time.Second
)

// Event is the JSON shape pushed to subscribers.
type Event struct {
	Event    string `json:"event"`
	Change   string `json:"change"`
	Keyspace string `json:"keyspace,omitempty"`
	Table    string `json:"table,omitempty"`
	Address  string `json:"address,omitempty"`
	Port     int32  `json:"port,omitempty"`
}

// filterMessage is the optional client-side subscription filter.
type filterMessage struct {
	Events []string `json:"events"`
}

type subscriber struct {
	conn   *websocket.Conn
	filter *strset.Set // empty set means all event types
	mu     sync.Mutex
}

func (s *subscriber) wants(tag string) bool {
	return s.filter.IsEmpty() || s.filter.Has(tag)
}

func (s *subscriber) push(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(ev)
}

// Gateway fans decoded events out to connected subscribers.
type Gateway struct {
	upgrader websocket.Upgrader
	log      *logging.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// New builds a gateway. allowedOrigins restricts browser connections;
// empty or "*" allows all.
func New(allowedOrigins []string) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log:  logging.NewLogger("gateway"),
		subs: make(map[*subscriber]struct{}),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Handler upgrades connections and keeps them subscribed until they
// close.
func (g *Gateway) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		sub := &subscriber{conn: conn, filter: strset.New()}
		g.add(sub)
		g.log.Info("subscriber connected", "remote", r.RemoteAddr)
		go g.readLoop(sub)
	})
}

func (g *Gateway) add(s *subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs[s] = struct{}{}
}

func (g *Gateway) remove(s *subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.subs, s)
}

// readLoop consumes filter updates and detects disconnects.
func (g *Gateway) readLoop(s *subscriber) {
	defer func() {
		g.remove(s)
		s.conn.Close()
		g.log.Info("subscriber disconnected")
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg filterMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			g.log.Warn("bad filter message", "error", err)
			continue
		}
		s.mu.Lock()
		s.filter = strset.New(msg.Events...)
		s.mu.Unlock()
	}
}

// SubscriberCount reports the number of connected subscribers.
func (g *Gateway) SubscriberCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// Broadcast pushes one decoded event to every matching subscriber.
// Subscribers that fail to accept the write are dropped.
func (g *Gateway) Broadcast(body protocol.EventBody) {
	ev, ok := render(body)
	if !ok {
		return
	}

	g.mu.Lock()
	subs := make([]*subscriber, 0, len(g.subs))
	for s := range g.subs {
		subs = append(subs, s)
	}
	g.mu.Unlock()

	for _, s := range subs {
		s.mu.Lock()
		want := s.wants(ev.Event)
		s.mu.Unlock()
		if !want {
			continue
		}
		if err := s.push(ev); err != nil {
			g.log.Warn("push failed, dropping subscriber", "error", err)
			g.remove(s)
			s.conn.Close()
		}
	}
}

// render flattens an event body into the push shape.
func render(body protocol.EventBody) (Event, bool) {
	switch e := body.(type) {
	case protocol.SchemaChangeEvent:
		return Event{Event: "SCHEMA_CHANGE", Change: e.Change, Keyspace: e.Keyspace, Table: e.Table}, true
	case protocol.StatusChangeEvent:
		return Event{Event: "STATUS_CHANGE", Change: e.Change, Address: e.Address.String(), Port: e.Port}, true
	case protocol.TopologyChangeEvent:
		return Event{Event: "TOPOLOGY_CHANGE", Change: e.Change, Address: e.Address.String(), Port: e.Port}, true
	default:
		return Event{}, false
	}
}
