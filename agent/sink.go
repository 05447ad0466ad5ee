package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/damoonsh/Halite/tick"
	"github.com/damoonsh/Halite/trace"
)

// Sink runs in the background and forwards tick traces to a recorder, so
// that connection handlers never wait on disk. All sessions share one sink,
// which also serializes access to the recorder.
type Sink struct {
	rec     trace.Recorder
	queue   chan tick.Trace
	mu      sync.Mutex
	dropped int
	done    chan struct{}
}

// NewSink creates a sink holding up to buffer pending traces.
func NewSink(rec trace.Recorder, buffer int) *Sink {
	if buffer <= 0 {
		buffer = 64
	}
	return &Sink{
		rec:   rec,
		queue: make(chan tick.Trace, buffer),
		done:  make(chan struct{}),
	}
}

// Submit queues a trace. A full queue drops the trace rather than stalling
// the tick.
func (s *Sink) Submit(tr tick.Trace) bool {
	select {
	case s.queue <- tr:
		return true
	default:
		s.mu.Lock()
		s.dropped++
		n := s.dropped
		s.mu.Unlock()
		slog.Warn("trace dropped", "player", tr.Player, "tick", tr.Tick, "dropped", n)
		return false
	}
}

// Start drains the queue until ctx is cancelled, then records whatever is
// still queued and closes the recorder.
func (s *Sink) Start(ctx context.Context) {
	defer close(s.done)
	slog.Info("trace sink started")
	for {
		select {
		case <-ctx.Done():
			s.drain()
			if err := s.rec.Close(); err != nil {
				slog.Error("close trace recorder", "error", err)
			}
			slog.Info("trace sink stopped")
			return
		case tr := <-s.queue:
			s.record(tr)
		}
	}
}

// Wait blocks until Start has returned.
func (s *Sink) Wait() { <-s.done }

func (s *Sink) drain() {
	for {
		select {
		case tr := <-s.queue:
			s.record(tr)
		default:
			return
		}
	}
}

func (s *Sink) record(tr tick.Trace) {
	if err := s.rec.Record(tr); err != nil {
		slog.Error("record trace", "player", tr.Player, "tick", tr.Tick, "error", err)
	}
}
