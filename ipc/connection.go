package ipc

import (
	"errors"
	"fmt"
	"log/slog"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection represents a single game host talking to the controller.
// Each player gets its own connection, identified after the hello handshake.
type Connection struct {
	t        Transport
	handlers map[string]Handler
	Player   string
}

func NewConnection(t Transport, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		t:        t,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.t.Write(env)
}

// ReadLoop dispatches envelopes until the transport fails, then closes it.
// A peer that hangs up cleanly ends the loop with a nil error. Messages
// without a handler, or whose handler fails, are logged and dropped.
func (c *Connection) ReadLoop() error {
	defer c.t.Close()

	for {
		env, err := c.t.Read()
		if errors.Is(err, ErrClosed) {
			slog.Info("connection closed by peer", "player", c.Player)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		resp := c.dispatch(env)
		if resp == nil {
			continue
		}
		if err := c.t.Write(*resp); err != nil {
			return fmt.Errorf("send %s: %w", resp.Type, err)
		}
		slog.Debug("sent response", "type", resp.Type, "player", c.Player)
	}
}

func (c *Connection) dispatch(env Envelope) *Envelope {
	handler, ok := c.handlers[env.Type]
	if !ok {
		slog.Warn("no handler for message type", "type", env.Type, "player", c.Player)
		return nil
	}

	resp, err := handler(env)
	if err != nil {
		slog.Error("handler error", "type", env.Type, "player", c.Player, "error", err)
		return nil
	}
	return resp
}
