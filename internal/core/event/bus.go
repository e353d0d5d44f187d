package event

import "sync"

// Bus fans committed store transactions out to subscribers. Commits are
// already serialized by the store, so delivery is direct: subscribers run on
// the publishing goroutine and must hand heavy work off themselves.
type Bus struct {
	mu   sync.RWMutex // protects handler registration
	subs []func(Commit)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a commit handler. Registration normally happens once
// at boot, before the scheduler starts.
func (b *Bus) Subscribe(fn func(Commit)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers one commit to every subscriber in registration order.
func (b *Bus) Publish(c Commit) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}
