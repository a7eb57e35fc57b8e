package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// LiveConn is one live channel handle. Writes go through its own mutex
// because gorilla connections allow only one concurrent writer.
type LiveConn struct {
	phone string
	ws    *websocket.Conn

	mu sync.Mutex
}

// SendJSON writes a JSON message to the connection
func (l *LiveConn) SendJSON(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ws.WriteJSON(v)
}

// Registry owns the mapping from identity to live connection. At most one
// connection per identity: a newer connection for the same phone overwrites
// the previous entry (last-connect-wins), and cleanup compares handles so a
// stale connection's teardown cannot evict its replacement.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*LiveConn
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*LiveConn)}
}

// Register records a new live connection for phone, replacing any previous
// entry
func (r *Registry) Register(phone string, ws *websocket.Conn) *LiveConn {
	conn := &LiveConn{phone: phone, ws: ws}
	r.mu.Lock()
	r.conns[phone] = conn
	r.mu.Unlock()
	return conn
}

// Unregister removes the connection if it is still the current entry for
// its identity
func (r *Registry) Unregister(conn *LiveConn) {
	r.mu.Lock()
	if current, ok := r.conns[conn.phone]; ok && current == conn {
		delete(r.conns, conn.phone)
	}
	r.mu.Unlock()
}

// Get returns the live connection for phone, if any
func (r *Registry) Get(phone string) (*LiveConn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[phone]
	return conn, ok
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Send delivers a message to the identity's live connection, if one exists
func (r *Registry) Send(phone string, v interface{}) error {
	conn, ok := r.Get(phone)
	if !ok {
		return nil
	}
	return conn.SendJSON(v)
}
