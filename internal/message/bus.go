package message

import "sync"

// Bus is an unbounded multi-producer/multi-subscriber dispatcher: Publish
// never blocks on a slow subscriber.
type Bus struct {
	mu   sync.Mutex
	subs []*subscriber
}

func NewBus() *Bus { return &Bus{} }

// Publish fans msg out to every current subscriber.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	subs := make([]*subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.push(msg)
	}
}

// Subscribe registers a new subscriber and returns the channel it receives
// messages on. Call the returned cancel function to unsubscribe.
func (b *Bus) Subscribe() (<-chan Message, func()) {
	s := newSubscriber()
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		for i, existing := range b.subs {
			if existing == s {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		s.close()
	}
	return s.out, cancel
}

// subscriber buffers an unbounded backlog in a slice guarded by a mutex,
// pumping it into an unbuffered output channel so a slow reader never
// blocks Publish.
type subscriber struct {
	mu      sync.Mutex
	backlog []Message
	signal  chan struct{}
	out     chan Message
	closed  bool
}

func newSubscriber() *subscriber {
	s := &subscriber{
		signal: make(chan struct{}, 1),
		out:    make(chan Message),
	}
	go s.pump()
	return s
}

func (s *subscriber) push(msg Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.backlog = append(s.backlog, msg)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) pump() {
	for {
		s.mu.Lock()
		if len(s.backlog) == 0 {
			if s.closed {
				s.mu.Unlock()
				close(s.out)
				return
			}
			s.mu.Unlock()
			<-s.signal
			continue
		}
		msg := s.backlog[0]
		s.backlog = s.backlog[1:]
		s.mu.Unlock()

		s.out <- msg
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}
