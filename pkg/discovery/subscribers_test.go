package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanshare/lanshare/pkg/protocol"
)

func TestSubscribersFanOut(t *testing.T) {
	s := newSubscribers()
	a := s.add()
	b := s.add()

	s.publish(protocol.DeviceInfo{Fingerprint: "fp-1"})

	select {
	case d := <-a:
		assert.Equal(t, "fp-1", d.Fingerprint)
	case <-time.After(time.Second):
		t.Fatal("subscriber a did not receive publish")
	}
	select {
	case d := <-b:
		assert.Equal(t, "fp-1", d.Fingerprint)
	case <-time.After(time.Second):
		t.Fatal("subscriber b did not receive publish")
	}
}

func TestSubscribersCloseAllUnblocksReceivers(t *testing.T) {
	s := newSubscribers()
	ch := s.add()
	s.closeAll()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("closeAll did not close subscriber channel")
	}
}

func TestSubscribersDropsRatherThanBlocksWhenFull(t *testing.T) {
	s := newSubscribers()
	ch := s.add()

	for i := 0; i < subscriberBuffer+8; i++ {
		s.publish(protocol.DeviceInfo{Fingerprint: "fp"})
	}

	assert.Len(t, ch, subscriberBuffer, "publish must drop rather than block once a subscriber's buffer is full")
}
