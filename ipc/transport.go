package ipc

import (
	"errors"
	"io"
	"net"
	"sync"
)

// ErrClosed is returned by Read once the peer has closed the transport.
var ErrClosed = errors.New("transport closed")

// Transport moves whole envelopes. Read is only called from one goroutine;
// Write may be called concurrently.
type Transport interface {
	Read() (Envelope, error)
	Write(Envelope) error
	Close() error
}

// Framed is the length-prefixed transport used over the unix domain socket.
type Framed struct {
	conn net.Conn
	mu   sync.Mutex
}

func NewFramed(conn net.Conn) *Framed {
	return &Framed{conn: conn}
}

func (f *Framed) Read() (Envelope, error) {
	env, err := ReadEnvelope(f.conn)
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return Envelope{}, ErrClosed
	}
	return env, err
}

func (f *Framed) Write(env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return WriteEnvelope(f.conn, env)
}

func (f *Framed) Close() error { return f.conn.Close() }
