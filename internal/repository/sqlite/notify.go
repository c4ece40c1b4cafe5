package sqlite

import (
	"sync"

	"github.com/sakif/devlink/internal/model"
)

// linkNotifier fans out link-collection snapshots to active subscribers.
//
// Each subscriber holds a buffered channel of capacity 1 carrying the latest
// snapshot: a slow consumer never blocks a write, it just skips intermediate
// states. Every delivered snapshot reflects all writes completed before it
// was taken, so coalescing loses nothing a consumer is promised.
//
// All sends happen under the mutex, serialized with subscribe/cancel, so a
// send can never race a channel close.
type linkNotifier struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan []model.Link // profileID → subscriber set
	nextID int
	closed bool
}

func newLinkNotifier() *linkNotifier {
	return &linkNotifier{
		subs: make(map[string]map[int]chan []model.Link),
	}
}

// subscribe registers a new subscriber for profileID. The initial snapshot is
// read and delivered while the lock is held, so a concurrent publish cannot
// land between the read and the delivery; any write that commits after the
// read publishes afterwards and replaces the initial snapshot in the buffer.
// The returned cancel is idempotent and closes the channel, ending any range
// loop over it.
func (n *linkNotifier) subscribe(profileID string, snapshot func() ([]model.Link, error)) (chan []model.Link, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan []model.Link, 1)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	n.nextID++
	id := n.nextID
	if n.subs[profileID] == nil {
		n.subs[profileID] = make(map[int]chan []model.Link)
	}
	n.subs[profileID][id] = ch

	if links, err := snapshot(); err == nil {
		deliver(ch, links)
	}

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		set, ok := n.subs[profileID]
		if !ok {
			return
		}
		if _, ok := set[id]; !ok {
			return // already cancelled
		}
		delete(set, id)
		if len(set) == 0 {
			delete(n.subs, profileID)
		}
		close(ch)
	}

	return ch, cancel
}

// publish delivers a snapshot to every subscriber of profileID.
func (n *linkNotifier) publish(profileID string, links []model.Link) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[profileID] {
		deliver(ch, links)
	}
}

func (n *linkNotifier) hasSubscribers(profileID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[profileID]) > 0
}

// closeAll drops every subscription. Called on DB close.
func (n *linkNotifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, set := range n.subs {
		for _, ch := range set {
			close(ch)
		}
	}
	n.subs = make(map[string]map[int]chan []model.Link)
}

// deliver replaces any stale buffered snapshot with the new one. Caller holds
// the notifier mutex, so after the drain there is always buffer space.
func deliver(ch chan []model.Link, links []model.Link) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- links:
	default:
	}
}
