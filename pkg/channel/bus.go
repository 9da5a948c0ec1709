// Package channel provides the in-process publish/subscribe bus that carries
// events on named channels. Each channel gets its own dispatcher goroutine and
// bounded queue so delivery order within a channel matches publish order,
// while a slow subscriber on one channel never stalls another.
package channel

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/papercomputeco/spool/pkg/event"
)

const defaultQueueSize uint = 256

// ErrClosed is returned when publishing to a closed bus.
var ErrClosed = errors.New("channel bus is closed")

// Handler receives events from a channel.
type Handler func(event.Event)

// Config is the configuration for a Bus.
type Config struct {
	// QueueSize is the capacity of each channel's queue (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

type subscription struct {
	id      uint64
	handler Handler
}

type dispatcher struct {
	name  string
	queue chan event.Event

	mu   sync.RWMutex
	subs []subscription
}

// Bus routes published events to the subscribers of their channel.
type Bus struct {
	queueSize uint
	logger    *slog.Logger

	mu          sync.RWMutex
	dispatchers map[string]*dispatcher
	nextID      uint64
	closed      bool
	closing     chan struct{}

	// inflight counts publishers between acquiring a dispatcher and
	// handing off their event. Queues are closed only once it drains.
	inflight sync.WaitGroup
	wg       sync.WaitGroup
}

// NewBus creates an empty bus.
func NewBus(c *Config) *Bus {
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Bus{
		queueSize:   c.QueueSize,
		logger:      logger,
		dispatchers: make(map[string]*dispatcher),
		closing:     make(chan struct{}),
	}
}

// Subscribe registers h on the named channel. The returned function removes
// the subscription and is safe to call more than once.
func (b *Bus) Subscribe(name string, h Handler) func() {
	d, err := b.dispatcher(name)
	if err != nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.mu.Unlock()

	d.mu.Lock()
	d.subs = append(d.subs, subscription{id: id, handler: h})
	d.mu.Unlock()

	b.logger.Debug("subscribed", "channel", name, "subscription", id)

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			d.subs = slices.DeleteFunc(d.subs, func(s subscription) bool {
				return s.id == id
			})
			d.mu.Unlock()
			b.logger.Debug("unsubscribed", "channel", name, "subscription", id)
		})
	}
}

// Publish queues e on the named channel, blocking while the queue is full
// until ctx is done or the bus closes.
func (b *Bus) Publish(ctx context.Context, name string, e event.Event) error {
	d, err := b.acquire(name)
	if err != nil {
		return err
	}
	defer b.inflight.Done()

	select {
	case d.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.closing:
		return ErrClosed
	}
}

// Channels returns the names of every channel seen so far, sorted.
func (b *Bus) Channels() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.dispatchers))
	for name := range b.dispatchers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Pending returns the number of queued, undispatched events on a channel.
func (b *Bus) Pending(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	d, ok := b.dispatchers[name]
	if !ok {
		return 0
	}
	return len(d.queue)
}

// Close stops accepting events and waits for queued events to be dispatched.
// An event whose Publish returned nil is always dispatched before Close
// returns.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.closing)
	b.mu.Unlock()

	// Publishers blocked on a full queue return ErrClosed; the rest finish
	// their send. No new publisher can acquire a dispatcher past this point.
	b.inflight.Wait()

	b.mu.RLock()
	for _, d := range b.dispatchers {
		close(d.queue)
	}
	b.mu.RUnlock()

	b.wg.Wait()
}

// dispatcher returns the named channel's dispatcher, starting it on first use.
func (b *Bus) dispatcher(name string) (*dispatcher, error) {
	return b.lookup(name, false)
}

// acquire is dispatcher for publishers. On success the caller must call
// b.inflight.Done once its send has completed or been abandoned.
func (b *Bus) acquire(name string) (*dispatcher, error) {
	return b.lookup(name, true)
}

func (b *Bus) lookup(name string, publishing bool) (*dispatcher, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrClosed
	}
	if d, ok := b.dispatchers[name]; ok {
		if publishing {
			b.inflight.Add(1)
		}
		b.mu.RUnlock()
		return d, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if publishing {
		b.inflight.Add(1)
	}
	if d, ok := b.dispatchers[name]; ok {
		return d, nil
	}

	d := &dispatcher{
		name:  name,
		queue: make(chan event.Event, b.queueSize),
	}
	b.dispatchers[name] = d

	b.wg.Add(1)
	go b.run(d)
	return d, nil
}

// run is the dispatcher loop for one channel. It exits once Close has
// closed the queue and every queued event has been dispatched.
func (b *Bus) run(d *dispatcher) {
	defer b.wg.Done()
	b.logger.Debug("dispatcher started", "channel", d.name)

	for e := range d.queue {
		d.dispatch(e)
	}
	b.logger.Debug("dispatcher stopped", "channel", d.name)
}

func (d *dispatcher) dispatch(e event.Event) {
	d.mu.RLock()
	subs := slices.Clone(d.subs)
	d.mu.RUnlock()

	for _, s := range subs {
		s.handler(e)
	}
}
