/*
Package sim
File: loop.go
Description:
    The frame driver: a real-time ticker standing in for the browser's
    animation-frame callback. Each frame feeds the engine the real elapsed
    time, capped so a stalled host never produces a huge catch-up burst.
    Ticks never overlap — one frame's work completes before the next starts.
*/

package sim

import (
	"context"
	"log"
	"time"
)

const (
	// FrameInterval approximates the cadence of a browser frame loop.
	FrameInterval = 50 * time.Millisecond

	// MaxFrameDelta caps the per-frame elapsed time. A suspended process
	// resumes with at most one capped frame instead of a burst of game time.
	MaxFrameDelta = 100 * time.Millisecond
)

// Loop drives an Engine from wall-clock time.
type Loop struct {
	engine *Engine
}

// NewLoop wraps an engine in a frame driver.
func NewLoop(engine *Engine) *Loop {
	return &Loop{engine: engine}
}

// Run ticks the engine until ctx is cancelled. A panic inside one frame is
// logged and the loop keeps running: a single bad tick must not stop the
// game.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt > MaxFrameDelta {
				dt = MaxFrameDelta
			}
			l.frame(dt)
		case <-ctx.Done():
			log.Println("[Loop] stopped")
			return
		}
	}
}

func (l *Loop) frame(dt time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Loop] panic in frame: %v", r)
		}
	}()
	l.engine.Advance(dt)
}
