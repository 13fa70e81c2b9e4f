// ABOUTME: Event bus for decoupled state-change notification between zones and callers
// ABOUTME: Single ordered queue, per-entity scoping, one-shot future support
package bus

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// All subscribes to every event name.
	All = "*"

	// Wildcard matches any entity, both as a subscription scope and as an
	// event's entity.
	Wildcard = -1
)

// DefaultFutureTimeout is how long WaitFuture waits when the caller has no
// better idea.
const DefaultFutureTimeout = 5 * time.Second

// ErrCallbackRequired is returned by Subscribe when no callback is given.
var ErrCallbackRequired = errors.New("bus: callback must not be nil")

// ErrTimeout is returned by WaitFuture when the future does not resolve in
// time.
var ErrTimeout = errors.New("bus: timed out waiting for future")

// Event is one published state change.
type Event struct {
	Name   string
	Entity int
	Data   any
}

// Callback receives delivered events. Callbacks run on the bus goroutine, so
// they must not block for long.
type Callback func(Event)

// Subscription identifies a single registration so it can be removed later.
type Subscription struct {
	id   uuid.UUID
	name string
}

type registration struct {
	id     uuid.UUID
	entity int
	once   bool
	cb     Callback
}

// Bus routes published events to subscribers in FIFO order.
type Bus struct {
	mu      sync.Mutex
	subs    map[string][]*registration
	pending []Event
	cond    *sync.Cond
	stopped bool
}

// New creates a bus and starts its delivery goroutine.
func New() *Bus {
	b := &Bus{
		subs: make(map[string][]*registration),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.process()
	return b
}

// Stop halts event delivery. Events still queued are dropped and further
// publishes are ignored. Outstanding futures are left to their own timeouts.
func (b *Bus) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.cond.Signal()
}

// Subscribe registers a callback for an event name, scoped to an entity
// (Wildcard for all). With once set the registration is removed after its
// first matching delivery.
func (b *Bus) Subscribe(name string, cb Callback, entity int, once bool) (Subscription, error) {
	if cb == nil {
		return Subscription{}, fmt.Errorf("%w (event %q, entity %d)", ErrCallbackRequired, name, entity)
	}

	reg := &registration{
		id:     uuid.New(),
		entity: entity,
		once:   once,
		cb:     cb,
	}

	b.mu.Lock()
	b.subs[name] = append(b.subs[name], reg)
	b.mu.Unlock()

	return Subscription{id: reg.id, name: name}, nil
}

// Unsubscribe removes a registration. Removing one that no longer exists is a
// no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub.name, sub.id)
}

func (b *Bus) removeLocked(name string, id uuid.UUID) {
	regs := b.subs[name]
	for i, reg := range regs {
		if reg.id == id {
			b.subs[name] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Publish enqueues an event and returns immediately. Publishing on a stopped
// bus is a no-op.
func (b *Bus) Publish(name string, entity int, data any) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.pending = append(b.pending, Event{Name: name, Entity: entity, Data: data})
	b.mu.Unlock()
	b.cond.Signal()
}

// Future returns a channel that resolves with the data of the next event
// matching name and entity. The underlying subscription is one-shot. The
// caller must apply its own timeout; see WaitFuture.
func (b *Bus) Future(name string, entity int) <-chan any {
	ch := make(chan any, 1)
	b.Subscribe(name, func(ev Event) {
		ch <- ev.Data
	}, entity, true)
	return ch
}

// WaitFuture awaits a Future with a timeout, converting expiry into
// ErrTimeout. A zero timeout waits forever.
func (b *Bus) WaitFuture(future <-chan any, timeout time.Duration) (any, error) {
	if timeout == 0 {
		return <-future, nil
	}
	select {
	case data := <-future:
		return data, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// WaitFor waits for the next matching event and returns its data, or fallback
// when the timeout expires.
func (b *Bus) WaitFor(name string, entity int, timeout time.Duration, fallback any) any {
	data, err := b.WaitFuture(b.Future(name, entity), timeout)
	if err != nil {
		return fallback
	}
	return data
}

// process drains the queue one event at a time, in publish order.
func (b *Bus) process() {
	for {
		b.mu.Lock()
		for len(b.pending) == 0 && !b.stopped {
			b.cond.Wait()
		}
		if b.stopped {
			b.mu.Unlock()
			return
		}
		ev := b.pending[0]
		b.pending = b.pending[1:]
		b.mu.Unlock()

		b.deliver(ev, ev.Name)
		b.deliver(ev, All)
	}
}

// deliver invokes every matching registration under the given name. One-shot
// registrations are removed before the next event is processed.
func (b *Bus) deliver(ev Event, name string) {
	b.mu.Lock()
	var matched []*registration
	for _, reg := range b.subs[name] {
		if ev.Entity == Wildcard || reg.entity == ev.Entity || reg.entity == Wildcard {
			matched = append(matched, reg)
		}
	}
	for _, reg := range matched {
		if reg.once {
			b.removeLocked(name, reg.id)
		}
	}
	b.mu.Unlock()

	for _, reg := range matched {
		b.invoke(reg, ev)
	}
}

// invoke runs one callback, recovering from panics so a misbehaving
// subscriber cannot kill the bus or starve its peers.
func (b *Bus) invoke(reg *registration, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("EventBus: subscriber panic on %s: %v", ev.Name, r)
		}
	}()
	reg.cb(ev)
}
