package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Sink writes events somewhere durable (kafka in production, memory in tests).
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher forwards events to a sink, either synchronously or through a
// bounded buffer drained by a background goroutine. Close drains the buffer.
// A nil *Publisher is valid and drops everything, so callers never nil-check.
type Publisher struct {
	sink   Sink
	logger *slog.Logger

	inbox   chan Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to buffered async delivery.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.inbox = make(chan Event, size) }
}

func NewPublisher(sink Sink, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: logger, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit stamps and delivers the event. Async mode drops when the buffer is
// full; sync mode writes inline and returns the sink error for logging.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.sink.Write(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		p.dropped.Add(1)
		p.logger.Warn("event buffer full, dropping event",
			"type", event.Type, "tourist_id", event.TouristID)
	}
	return nil
}

// Dropped returns how many events were discarded due to a full buffer.
func (p *Publisher) Dropped() int64 {
	if p == nil {
		return 0
	}
	return p.dropped.Load()
}

// Close drains outstanding events and stops the background goroutine.
func (p *Publisher) Close() {
	if p == nil || p.inbox == nil {
		return
	}
	p.once.Do(func() {
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.sink.Write(ctx, event); err != nil {
			p.logger.Warn("event sink write failed", "type", event.Type, "error", err)
		}
		cancel()
	}
}
