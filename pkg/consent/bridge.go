// Package consent bridges the receiver server's pending prepare-upload
// requests to an external decision-maker (a CLI auto-accept policy, a
// TUI, or any future UI) without coupling the server to any particular
// one. It is the single-slot shared cell described in spec §4.5,
// modeled as an actor over a channel rather than a mutex-guarded field,
// per the design notes in spec §9.
package consent

import (
	"context"
	"time"

	"github.com/lanshare/lanshare/pkg/protocol"
)

// PendingTransfer is the rendezvous object a prepare-upload handler
// publishes and an external decider resolves.
type PendingTransfer struct {
	Sender  protocol.DeviceInfo
	Files   map[string]protocol.FileMetadata
	SentAt  time.Time
	replyCh chan bool
}

// Reply delivers the decider's verdict. Only the first call has any
// effect; later calls on an already-resolved transfer are no-ops.
func (p *PendingTransfer) Reply(accept bool) {
	select {
	case p.replyCh <- accept:
	default:
	}
}

// ConsentWindow is the time a prepare-upload handler waits for a decision
// before treating the request as rejected.
const ConsentWindow = 60 * time.Second

// Decider is the pluggable policy a CLI or TUI implements to resolve a
// PendingTransfer. It supplements spec §4.5, which describes the
// decision-maker only as "an external UI collaborator".
type Decider interface {
	Decide(ctx context.Context, pending *PendingTransfer) bool
}

// DeciderFunc adapts a function to a Decider.
type DeciderFunc func(ctx context.Context, pending *PendingTransfer) bool

func (f DeciderFunc) Decide(ctx context.Context, pending *PendingTransfer) bool {
	return f(ctx, pending)
}

// Bridge is the single-slot cell: at most one PendingTransfer is offered
// at a time, enforced by the channel's capacity of one. The server calls
// Offer only after its session manager has accepted a new session, and
// does not hold the session lock during the call; an Offer that finds the
// slot still occupied waits for it within the same ConsentWindow.
type Bridge struct {
	slot chan *PendingTransfer
}

// New returns an empty Bridge.
func New() *Bridge {
	return &Bridge{slot: make(chan *PendingTransfer, 1)}
}

// Offer publishes a pending transfer and awaits its reply, honoring
// ConsentWindow. A timeout, a Reply(false), or ctx cancellation all
// resolve to false.
func (b *Bridge) Offer(ctx context.Context, sender protocol.DeviceInfo, files map[string]protocol.FileMetadata) bool {
	pending := &PendingTransfer{
		Sender:  sender,
		Files:   files,
		SentAt:  time.Now(),
		replyCh: make(chan bool, 1),
	}

	timeout, cancel := context.WithTimeout(ctx, ConsentWindow)
	defer cancel()

	select {
	case b.slot <- pending:
	case <-timeout.Done():
		return false
	}

	select {
	case accept := <-pending.replyCh:
		return accept
	case <-timeout.Done():
		return false
	}
}

// Take removes the currently offered PendingTransfer, if any, without
// blocking. This is how a decision-maker polls for work.
func (b *Bridge) Take() (*PendingTransfer, bool) {
	select {
	case pending := <-b.slot:
		return pending, true
	default:
		return nil, false
	}
}

// RunDecider drives a Decider against every pending transfer the Bridge
// receives until ctx is cancelled. It is the loop a CLI's --auto-accept
// flag or a TUI's event loop runs in the background.
func RunDecider(ctx context.Context, b *Bridge, decider Decider) {
	for {
		select {
		case <-ctx.Done():
			return
		case pending := <-b.slot:
			go func(p *PendingTransfer) {
				p.Reply(decider.Decide(ctx, p))
			}(pending)
		}
	}
}
