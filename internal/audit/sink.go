package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veysel440/ipgate/internal/gate"
)

type Inserter interface {
	Insert(ctx context.Context, e gate.Event) error
}

type SinkOptions struct {
	Buffer  int
	Timeout time.Duration
	Log     *slog.Logger
	OnDrop  func()
	OnError func()
}

// Sink is a gate.Recorder that queues events and writes them from a single
// background worker, so a slow database never holds up a request.
type Sink struct {
	ins     Inserter
	opt     SinkOptions
	ch      chan gate.Event
	stop    chan struct{}
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	started bool
}

func NewSink(ins Inserter, opt SinkOptions) *Sink {
	if opt.Buffer <= 0 {
		opt.Buffer = 256
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 3 * time.Second
	}
	if opt.Log == nil {
		opt.Log = slog.Default()
	}
	return &Sink{
		ins:  ins,
		opt:  opt,
		ch:   make(chan gate.Event, opt.Buffer),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Record enqueues e, dropping it when the queue is full or the sink closed.
func (s *Sink) Record(_ context.Context, e gate.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped(e)
		return
	}
	select {
	case s.ch <- e:
	default:
		s.dropped(e)
	}
}

func (s *Sink) dropped(e gate.Event) {
	if s.opt.OnDrop != nil {
		s.opt.OnDrop()
	}
	s.opt.Log.Warn("audit_drop", slog.String("ip", e.IP.String()), slog.String("path", e.Path))
}

// Start runs the worker until Close.
func (s *Sink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	go s.run()
}

func (s *Sink) run() {
	defer close(s.done)
	for {
		select {
		case e := <-s.ch:
			s.write(e)
		case <-s.stop:
			s.drain()
			return
		}
	}
}

func (s *Sink) drain() {
	for {
		select {
		case e := <-s.ch:
			s.write(e)
		default:
			return
		}
	}
}

func (s *Sink) write(e gate.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opt.Timeout)
	defer cancel()
	if err := s.ins.Insert(ctx, e); err != nil {
		if s.opt.OnError != nil {
			s.opt.OnError()
		}
		s.opt.Log.Error("audit_insert", slog.String("err", err.Error()), slog.String("ip", e.IP.String()))
	}
}

// Close stops the worker after flushing queued events. Later Records drop.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	close(s.stop)
	s.mu.Unlock()
	if started {
		<-s.done
		return
	}
	s.drain()
}
