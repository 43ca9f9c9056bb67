package visualizer

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the delay between revealed steps.
const DefaultInterval = 1200 * time.Millisecond

// Player steps through a fixed number of fields. Active is -1 before the
// first step. Safe for concurrent use.
type Player struct {
	mu       sync.Mutex
	total    int
	active   int
	playing  bool
	complete bool
}

// NewPlayer creates a stopped player over total steps.
func NewPlayer(total int) *Player {
	return &Player{total: total, active: -1}
}

// Start rewinds to the first step and begins playing.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 {
		return
	}
	p.active = 0
	p.playing = true
	p.complete = false
}

// Tick advances one step while playing. Ticking on the last step stops
// playback and marks the player complete. It reports whether the player is
// still playing.
func (p *Player) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return false
	}
	if p.active >= p.total-1 {
		p.playing = false
		p.complete = true
		return false
	}
	p.active++
	return true
}

// Select jumps to step i. It is ignored while playing or out of range.
func (p *Player) Select(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing || i < 0 || i >= p.total {
		return false
	}
	p.active = i
	p.complete = i == p.total-1
	return true
}

// Reset stops playback and clears progress.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = -1
	p.playing = false
	p.complete = false
}

func (p *Player) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.complete
}

// StateOf returns how step i is shown given the current progress.
func (p *Player) StateOf(i int) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return stateOf(i, p.active, p.complete)
}

func stateOf(i, active int, complete bool) State {
	switch {
	case i == active:
		return StateActive
	case i < active || (complete && i <= active):
		return StateCompleted
	default:
		return StatePending
	}
}

// Play starts p and ticks every interval until it completes or ctx is done.
// fn, if set, is called with the active step after Start and after each tick.
func Play(ctx context.Context, p *Player, interval time.Duration, fn func(active int)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.Start()
	if fn != nil {
		fn(p.Active())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Reset()
			return ctx.Err()
		case <-ticker.C:
			advanced := p.Tick()
			if !advanced {
				if fn != nil && p.Complete() {
					fn(p.Active())
				}
				return nil
			}
			if fn != nil {
				fn(p.Active())
			}
		}
	}
}
