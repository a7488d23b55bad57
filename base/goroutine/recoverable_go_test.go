package goroutine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecoverableGo(t *testing.T) {
	tests := []struct {
		name      string
		f         func()
		wantPanic interface{}
	}{
		{name: "returns", f: func() {}},
		{name: "panics", f: func() { panic("settle failed") }, wantPanic: "settle failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := <-RecoverableGo(tt.f)
			if tt.wantPanic == nil {
				assert.False(t, ok)
				assert.Nil(t, ev)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.wantPanic, ev.Panic)
			assert.NotEmpty(t, ev.Stack)
		})
	}
}

func TestLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rounds := 0
	panics := Loop(ctx, time.Millisecond, func() {
		rounds++
		if rounds == 3 {
			cancel()
		}
		if rounds == 2 {
			panic("round 2")
		}
	})
	assert.Equal(t, 3, rounds)
	assert.Equal(t, 1, panics)
}
