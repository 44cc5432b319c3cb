package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanshare/lanshare/pkg/protocol"
)

func TestPeerSetAddDedupsByFingerprint(t *testing.T) {
	s := NewPeerSet()
	d := protocol.DeviceInfo{Fingerprint: "fp-1", IP: "10.0.0.5", Port: 53317, Alias: "phone"}

	require.True(t, s.Add(d))
	require.False(t, s.Add(d))
	assert.Equal(t, 1, s.Len())
}

func TestPeerSetAddDedupsByAddressFallback(t *testing.T) {
	s := NewPeerSet()
	first := protocol.DeviceInfo{Fingerprint: "fp-1", IP: "10.0.0.5", Port: 53317}
	second := protocol.DeviceInfo{Fingerprint: "fp-2", IP: "10.0.0.5", Port: 53317}

	require.True(t, s.Add(first))
	require.False(t, s.Add(second), "same (ip, port) under a new fingerprint should not count as a new peer")
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get("fp-2")
	require.True(t, ok)
	assert.Equal(t, "fp-2", got.Fingerprint, "address-index migration should track the latest fingerprint")

	_, ok = s.Get("fp-1")
	assert.False(t, ok)
}

func TestPeerSetFindByAliasOrAddress(t *testing.T) {
	s := NewPeerSet()
	d := protocol.DeviceInfo{Fingerprint: "fp-1", IP: "10.0.0.9", Port: 53317, Alias: "desk"}
	s.Add(d)

	_, ok := s.FindByAliasOrAddress("desk")
	assert.True(t, ok)
	_, ok = s.FindByAliasOrAddress("10.0.0.9")
	assert.True(t, ok)
	_, ok = s.FindByAliasOrAddress("nope")
	assert.False(t, ok)
}
