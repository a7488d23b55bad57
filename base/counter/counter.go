package counter

import "sync/atomic"

// Counter is a running total safe for concurrent use
type Counter struct {
	n int64
}

func NewCounter() *Counter {
	return &Counter{}
}

// Add adds val and returns the new total
func (c *Counter) Add(val int) int {
	return int(atomic.AddInt64(&c.n, int64(val)))
}

func (c *Counter) Count() int {
	return int(atomic.LoadInt64(&c.n))
}
