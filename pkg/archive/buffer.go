package archive

import (
	"sync"
	"time"
)

// Buffer accumulates stream events until a flush is due. The last resume
// token in a flushed batch is the one to persist once the batch lands.
type Buffer struct {
	mu        sync.Mutex
	events    []Event
	capacity  int
	lastFlush time.Time
}

// NewBuffer creates a Buffer with the given capacity
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		events:    make([]Event, 0, capacity),
		capacity:  capacity,
		lastFlush: time.Now(),
	}
}

// Add appends an event. Returns true when the buffer has reached capacity
// and should be flushed.
func (b *Buffer) Add(e Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, e)
	return len(b.events) >= b.capacity
}

// Flush returns the current batch and clears the buffer
func (b *Buffer) Flush() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.events
	b.events = make([]Event, 0, b.capacity)
	b.lastFlush = time.Now()
	return batch
}

// Size returns the current number of buffered events
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// ShouldFlush returns true if events are waiting and the interval has
// passed since the last flush
func (b *Buffer) ShouldFlush(interval time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return false
	}
	return time.Since(b.lastFlush) >= interval
}
