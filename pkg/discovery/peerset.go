package discovery

import (
	"fmt"
	"sync"

	"github.com/lanshare/lanshare/pkg/protocol"
)

// PeerSet is the shared, reader-writer protected set of known devices
// keyed by fingerprint, with an (ip, port) fallback index for peers whose
// fingerprint collides or is missing. The discovery participant is the
// sole writer; the sender and any UI are readers.
type PeerSet struct {
	mu        sync.RWMutex
	byFinger  map[string]protocol.DeviceInfo
	byAddress map[string]string // "ip:port" -> fingerprint
}

// NewPeerSet returns an empty PeerSet.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		byFinger:  make(map[string]protocol.DeviceInfo),
		byAddress: make(map[string]string),
	}
}

func addressKey(ip string, port int) string {
	return fmt.Sprintf("%s:%d", ip, port)
}

// Add inserts or refreshes a peer. It reports whether this observation
// was new: a peer is new iff no prior accepted peer shares its
// fingerprint, or, failing that, its (ip, port) tuple.
func (s *PeerSet) Add(d protocol.DeviceInfo) (isNew bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byFinger[d.Fingerprint]; ok {
		s.byFinger[d.Fingerprint] = d
		return false
	}

	addr := addressKey(d.IP, d.Port)
	if fp, ok := s.byAddress[addr]; ok {
		// Same (ip, port) under a fingerprint we haven't seen before:
		// treat it as a refresh of the existing entry rather than a new
		// peer, and migrate the index to the latest fingerprint.
		delete(s.byFinger, fp)
		s.byFinger[d.Fingerprint] = d
		s.byAddress[addr] = d.Fingerprint
		return false
	}

	s.byFinger[d.Fingerprint] = d
	s.byAddress[addr] = d.Fingerprint
	return true
}

// List returns a snapshot of all known peers.
func (s *PeerSet) List() []protocol.DeviceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]protocol.DeviceInfo, 0, len(s.byFinger))
	for _, d := range s.byFinger {
		out = append(out, d)
	}
	return out
}

// Get looks up a peer by fingerprint.
func (s *PeerSet) Get(fingerprint string) (protocol.DeviceInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byFinger[fingerprint]
	return d, ok
}

// FindByAliasOrAddress resolves a target string against known peers by
// alias or by bare IP, matching the sender's target-resolution contract.
func (s *PeerSet) FindByAliasOrAddress(target string) (protocol.DeviceInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.byFinger {
		if d.Alias == target || d.IP == target {
			return d, true
		}
	}
	return protocol.DeviceInfo{}, false
}

// Len reports the number of known peers.
func (s *PeerSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byFinger)
}
