// Package events is the in-process pub/sub that lets independent components
// invalidate each other's state without holding references to one another.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/viqi/internal/logging"
)

type Topic string

const (
	CreditsUpdated Topic = "viqi:credits-updated"
	SignOut        Topic = "viqi:sign-out"
	SignIn         Topic = "viqi:sign-in"
)

// Handler receives the payload passed to Publish.
type Handler func(payload any)

type subscription struct {
	id uint64
	fn Handler
}

// Bus delivers events synchronously, in subscription order. It is safe for
// concurrent use; a handler may subscribe or unsubscribe while being called.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
	log    logging.Logger
}

func NewBus(log logging.Logger) *Bus {
	return &Bus{subs: make(map[Topic][]subscription), log: log}
}

// Subscribe registers fn for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[topic]
			for i, s := range list {
				if s.id == id {
					b.subs[topic] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every handler registered for topic. A panicking handler is
// logged and does not stop delivery to the rest.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	list := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range list {
		b.deliver(topic, s.fn, payload)
	}
}

func (b *Bus) deliver(topic Topic, fn Handler, payload any) {
	defer func() {
		if p := recover(); p != nil && b.log != nil {
			b.log.Error(context.Background(), "event handler panicked", "topic", string(topic), "panic", fmt.Sprint(p))
		}
	}()
	fn(payload)
}

// Subscribers reports how many handlers listen on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
