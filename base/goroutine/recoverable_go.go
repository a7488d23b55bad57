package goroutine

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/x-xyz/gomarket/base/log"
)

type PanicEvent struct {
	Panic interface{}
	Stack []byte
}

// RecoverableGo runs f in a goroutine. The returned channel yields the recovered
// panic, or is closed when f returns normally.
func RecoverableGo(f func()) <-chan *PanicEvent {
	panicChan := make(chan *PanicEvent, 1)

	go func() {
		defer func() {
			p := recover()
			if p == nil {
				close(panicChan)
				return
			}
			stack := debug.Stack()
			log.Log().WithFields(log.Fields{
				"err":   p,
				"stack": string(stack),
			}).Error("panic")
			panicChan <- &PanicEvent{p, stack}
		}()

		f()
	}()

	return panicChan
}

// Loop calls f every interval until ctx is done and returns how many rounds panicked.
// A panicking round is logged and the loop goes on.
func Loop(ctx context.Context, interval time.Duration, f func()) int {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	panics := 0
	for {
		if ev := <-RecoverableGo(f); ev != nil {
			panics++
		}
		if ctx.Err() != nil {
			return panics
		}
		select {
		case <-ctx.Done():
			return panics
		case <-ticker.C:
		}
	}
}
