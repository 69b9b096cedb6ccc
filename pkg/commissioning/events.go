package commissioning

import (
	"sync"

	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
)

// eventBufferSize bounds how many unread notifications a slow subscriber
// can accumulate before publish starts dropping its events rather than
// blocking the scan/connect state machine that triggered them.
const eventBufferSize = 16

// eventBus fans a notification out to every current subscriber. It is the
// event-channel dispatch idiom this codebase uses elsewhere, generalized
// to commissioning notifications: publish never blocks on a subscriber,
// and a slow or abandoned subscriber only loses its own events.
type eventBus struct {
	mu          sync.Mutex
	subscribers map[int]chan rpc.Notification
	nextID      int
}

func newEventBus() *eventBus {
	return &eventBus{subscribers: make(map[int]chan rpc.Notification)}
}

func (b *eventBus) subscribe() (<-chan rpc.Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan rpc.Notification, eventBufferSize)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

func (b *eventBus) publish(notif rpc.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- notif:
		default:
			// Subscriber isn't draining fast enough; drop rather than
			// block the caller that triggered the state change.
		}
	}
}
