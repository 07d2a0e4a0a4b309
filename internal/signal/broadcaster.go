package signal

import (
	"context"
	"sync"
	"sync/atomic"

	"aviatorpro/internal/metrics"
	"aviatorpro/internal/models"
)

const defaultSubscriberBuffer = 16

// Broadcaster fans stored signals out to in-process subscribers keyed by
// platform. Slow subscribers lose messages instead of blocking the sender.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[string]map[chan models.Signal]struct{}
	dropped atomic.Uint64
	metrics *metrics.Metrics
}

func NewBroadcaster(m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		subs:    map[string]map[chan models.Signal]struct{}{},
		metrics: m,
	}
}

func (b *Broadcaster) Name() string { return "broadcaster" }

// Subscribe registers a receiver for platform. The returned func removes it
// and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe(platform string, buf int) (<-chan models.Signal, func()) {
	if buf <= 0 {
		buf = defaultSubscriberBuffer
	}
	ch := make(chan models.Signal, buf)
	b.mu.Lock()
	if b.subs[platform] == nil {
		b.subs[platform] = map[chan models.Signal]struct{}{}
	}
	b.subs[platform][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[platform], ch)
			if len(b.subs[platform]) == 0 {
				delete(b.subs, platform)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Notify never fails; undeliverable copies are counted.
func (b *Broadcaster) Notify(_ context.Context, sig models.Signal) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[sig.Platform] {
		select {
		case ch <- sig:
		default:
			b.dropped.Add(1)
			b.metrics.SubscriberDropped()
		}
	}
	return nil
}

func (b *Broadcaster) Subscribers(platform string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[platform])
}

func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}
