// AngelaMos | 2026
// broadcaster.go

package settings

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	Channel          = "site:settings"
	subscriberBuffer = 4
)

// Broadcaster relays settings change payloads from the Redis channel to
// local subscribers. Delivery is at-most-once; a subscriber whose buffer is
// full misses the message.
type Broadcaster struct {
	rdb    *redis.Client
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool
}

func NewBroadcaster(rdb *redis.Client) *Broadcaster {
	return &Broadcaster{
		rdb:  rdb,
		subs: make(map[chan []byte]struct{}),
	}
}

// Run holds one Redis subscription until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, Channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			slog.Warn("settings subscription close failed", "error", err)
		}
	}()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.Broadcast([]byte(msg.Payload))
		}
	}
}

// Subscribe registers a listener. The returned func unregisters it and
// closes the channel. After Close the channel comes back already closed.
func (b *Broadcaster) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
}

// Close ends every subscription. Streams reading from them return.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broadcaster) Broadcast(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for ch := range b.subs {
		select {
		case ch <- payload:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		slog.Debug("settings update dropped for slow subscribers", "count", dropped)
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
