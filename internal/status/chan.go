package status

import (
	"sync"
	"sync/atomic"
)

// ChanSink buffers events on a channel for a consumer goroutine. When the
// buffer is full new events are dropped instead of blocking the engine.
type ChanSink struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Int64
}

// NewChanSink creates a ChanSink with the given buffer size.
func NewChanSink(buffer int) *ChanSink {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChanSink{ch: make(chan Event, buffer)}
}

func (c *ChanSink) Emit(ev Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Events returns the receive side. It is closed by Close.
func (c *ChanSink) Events() <-chan Event { return c.ch }

// Dropped reports how many events were discarded on a full buffer.
func (c *ChanSink) Dropped() int64 { return c.dropped.Load() }

// Close stops accepting events and closes the channel.
func (c *ChanSink) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
