package notify

import (
	"context"
	"sync"
	"time"
)

const subscriberBuffer = 64

// MemoryNotifier is an in-process fan-out hub for single-instance deployments.
type MemoryNotifier struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
	closed      bool
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		subscribers: make(map[int]chan Event),
	}
}

func (m *MemoryNotifier) Publish(ctx context.Context, event Event) error {
	_ = ctx
	if event.At.IsZero() {
		event.At = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			// subscriber is lagging, drop rather than block the writer
		}
	}
	return nil
}

func (m *MemoryNotifier) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	_ = ctx
	ch := make(chan Event, subscriberBuffer)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}, nil
	}
	id := m.nextID
	m.nextID++
	m.subscribers[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
	return ch, cancel, nil
}

// Close closes every subscriber channel so ranging consumers unblock.
// Cancel funcs handed out earlier stay safe to call; they only drop the
// subscription, they never close the channel themselves.
func (m *MemoryNotifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = make(map[int]chan Event)
	return nil
}
