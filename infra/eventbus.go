package infra

import (
	"sync"

	"github.com/cloudcopper/mesher/ports"
	"github.com/cskr/pubsub/v2"
)

// EventBus is topic based pub/sub with unbounded subscriber queues.
// The cskr/pubsub/v2 blocks publisher while any subscriber is slow,
// so every subscription is decoupled by an elastic fifo.
type EventBus struct {
	bus  *pubsub.PubSub[ports.Topic, ports.Event]
	mu   sync.Mutex
	subs map[chan ports.Event]chan ports.Event
}

func NewEventBus() *EventBus {
	return &EventBus{
		bus:  pubsub.New[ports.Topic, ports.Event](1),
		subs: make(map[chan ports.Event]chan ports.Event),
	}
}

func (e *EventBus) Shutdown() {
	e.bus.Shutdown()
}

func (e *EventBus) Pub(topic ports.Topic, event ports.Event) {
	e.bus.Pub(event, topic)
}

func (e *EventBus) Sub(topic ports.Topic) chan ports.Event {
	inp := e.bus.Sub(topic)
	out := make(chan ports.Event, 1)

	e.mu.Lock()
	e.subs[out] = inp
	e.mu.Unlock()

	go elastic(inp, out)
	return out
}

// Unsub stops subscription. The out channel gets closed
// after all queued events are read.
func (e *EventBus) Unsub(out chan ports.Event) {
	e.mu.Lock()
	inp, ok := e.subs[out]
	delete(e.subs, out)
	e.mu.Unlock()

	if ok {
		e.bus.Unsub(inp)
	}
}

// elastic moves events from inp to out through fifo of any size,
// and closes out when inp is closed and fifo is drained
func elastic(inp <-chan ports.Event, out chan<- ports.Event) {
	defer close(out)
	fifo := []ports.Event{}
	for inp != nil || len(fifo) > 0 {
		var send chan<- ports.Event
		var head ports.Event
		if len(fifo) > 0 {
			send, head = out, fifo[0]
		}

		select {
		case event, ok := <-inp:
			if !ok {
				inp = nil
				continue
			}
			fifo = append(fifo, event)
		case send <- head:
			fifo = fifo[1:]
		}
	}
}
