package inspector

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/spool/pkg/event"
)

// Bus is an event channel the inspector can both subscribe to and publish
// through.
type Bus interface {
	Subscriber
	Publish(ctx context.Context, name string, e event.Event) error
	Pending(name string) int
}

// Ingress publishes onto a bus, attaching the inspector to a channel the
// first time an event is published on it. Without it, events on a channel
// nobody subscribed to would be dispatched to zero handlers and lost.
type Ingress struct {
	in  *Inspector
	bus Bus
}

// Ingress returns a publisher for bus that keeps every published channel
// attached. A channel with a Route keeps its sink; any other feeds SinkAll.
func (i *Inspector) Ingress(bus Bus) *Ingress {
	return &Ingress{in: i, bus: bus}
}

// Publish attaches name if needed, then publishes e on it.
func (g *Ingress) Publish(ctx context.Context, name string, e event.Event) error {
	if err := g.in.ensureAttached(g.bus, name); err != nil {
		return err
	}
	return g.bus.Publish(ctx, name, e)
}

// Pending reports the bus queue depth for a channel.
func (g *Ingress) Pending(name string) int {
	return g.bus.Pending(name)
}

func (i *Inspector) ensureAttached(sub Subscriber, name string) error {
	i.mu.Lock()
	_, attached := i.attached[name]
	sink, routed := i.routes[name]
	i.mu.Unlock()

	if attached {
		return nil
	}
	if !routed {
		sink = SinkAll
	}

	err := i.Attach(sub, name, sink)
	if err != nil && !errors.Is(err, ErrAlreadyAttached) {
		return fmt.Errorf("attaching %s: %w", name, err)
	}
	return nil
}
