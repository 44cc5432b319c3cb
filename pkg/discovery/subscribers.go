package discovery

import (
	"sync"

	"github.com/lanshare/lanshare/pkg/protocol"
)

// subscriberBuffer is generous enough that a slow subscriber (a TUI
// repainting) does not stall delivery to a fast one under normal
// announce volume; a subscriber that falls further behind than this
// drops announcements rather than blocking the receive loop.
const subscriberBuffer = 64

// subscribers is a broadcast registry for OnDiscovered callbacks. Per the
// design notes in spec §9, discovery notification is a subscriber
// registry, not a single reassignable callback slot: registering a
// second subscriber must not silently replace the first.
type subscribers struct {
	mu   sync.Mutex
	subs []chan protocol.DeviceInfo
}

func newSubscribers() *subscribers {
	return &subscribers{}
}

// add registers a new subscriber and returns the channel it will receive
// every subsequently published DeviceInfo on.
func (s *subscribers) add() <-chan protocol.DeviceInfo {
	ch := make(chan protocol.DeviceInfo, subscriberBuffer)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// publish fans a DeviceInfo out to every registered subscriber,
// dropping it for any subscriber whose buffer is full rather than
// blocking the caller (the discovery receive loop).
func (s *subscribers) publish(d protocol.DeviceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

// closeAll closes every subscriber channel, used on Stop so callbacks
// blocked on a channel receive can observe shutdown.
func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
