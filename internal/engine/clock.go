package engine

import (
	"context"
	"fmt"
	"sync"
)

// Clock is a monotonic logical clock for journal ordering.
//
// Safe for concurrent use, though an Engine is normally driven from one
// goroutine.
type Clock struct {
	mu  sync.Mutex
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
// Used to resume after the last journaled seq.
func NewClockAt(start int64) *Clock {
	return &Clock{seq: start}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued sequence number without incrementing.
func (c *Clock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Advance calls fn with the next sequence number and consumes it only if fn
// returns nil. A failed fn leaves the clock where it was, so the number is
// handed out again.
func (c *Clock) Advance(fn func(seq int64) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fn(c.seq + 1); err != nil {
		return err
	}
	c.seq++
	return nil
}

// SeqSource reports the highest journaled sequence number.
// *store.Store implements it.
type SeqSource interface {
	LastJournalSeq(ctx context.Context) (int64, error)
}

// ResumeClock returns a clock positioned after the last journaled seq, so
// entries appended by a reopened database keep increasing.
func ResumeClock(ctx context.Context, src SeqSource) (*Clock, error) {
	last, err := src.LastJournalSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return NewClockAt(last), nil
}
