// Package discovery implements the multicast announce/respond protocol:
// a Participant owns one UDP socket, advertises the local device, and
// publishes every unique peer it observes to subscribers.
package discovery

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/lanshare/lanshare/internal/logging"
	"github.com/lanshare/lanshare/internal/taskgroup"
	"github.com/lanshare/lanshare/pkg/protocol"
)

// announceRetryDelays is the retry schedule from spec §4.2: three sends
// at 100ms, 600ms, and 2.6s after the call to AnnouncePresence,
// tolerating a single lost packet on a busy LAN.
var announceRetryDelays = []time.Duration{100 * time.Millisecond, 600 * time.Millisecond, 2600 * time.Millisecond}

// receiveTimeout bounds a single read so Stop takes effect within one tick.
const receiveTimeout = 1 * time.Second

const readBufferSize = 65536

// Config configures a Participant.
type Config struct {
	Self      protocol.DeviceInfo
	GroupAddr string
	Port      int
	Logger    logging.Logger
}

// Participant is one node's presence on the discovery multicast group. Its
// shape mirrors the teacher's core.Peer: an owned transport, a run loop
// selecting on a done signal, and a fan-out to consumers — generalized
// here from the teacher's single internal consumer to an arbitrary set of
// OnDiscovered subscribers.
type Participant struct {
	self      protocol.DeviceInfo
	groupAddr string
	port      int
	log       logging.Logger

	conn *ipv4.PacketConn
	peer *net.UDPAddr

	running int32
	cancel  context.CancelFunc
	tasks   *taskgroup.Group

	peers *PeerSet
	subs  *subscribers

	httpClient *http.Client
}

// New constructs a Participant that has not yet bound a socket.
func New(cfg Config) *Participant {
	if cfg.GroupAddr == "" {
		cfg.GroupAddr = protocol.DefaultMulticastAddress
	}
	if cfg.Port == 0 {
		cfg.Port = protocol.DefaultMulticastPort
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop{}
	}
	return &Participant{
		self:      cfg.Self,
		groupAddr: cfg.GroupAddr,
		port:      cfg.Port,
		log:       cfg.Logger,
		peers:     NewPeerSet(),
		subs:      newSubscribers(),
		tasks:     taskgroup.New(),
		httpClient: &http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}, //nolint:gosec // spec §9
			Timeout:   2 * time.Second,
		},
	}
}

// Start binds the multicast socket and begins the receive loop. It fails
// if already running.
func (p *Participant) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return protocol.NewError(protocol.InvalidState, "participant already started", nil)
	}

	conn, err := bindMulticastSocket(p.groupAddr, p.port)
	if err != nil {
		atomic.StoreInt32(&p.running, 0)
		return err
	}
	p.conn = conn
	p.peer = &net.UDPAddr{IP: net.ParseIP(p.groupAddr), Port: p.port}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.tasks.Spawn(func() { p.receiveLoop(loopCtx) })

	return nil
}

// Stop flips the running flag and closes the socket; the receive loop
// exits at its next timeout tick or immediately on the closed conn.
func (p *Participant) Stop() error {
	if !atomic.CompareAndSwapInt32(&p.running, 1, 0) {
		return nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.tasks.Wait()
	p.subs.closeAll()
	return err
}

// AnnouncePresence sends an unsolicited announcement to the multicast
// group three times at the spec's retry schedule, to tolerate a lost
// packet. It blocks until the last send has been made (or ctx is done)
// and returns the error of the last send that failed, if any.
func (p *Participant) AnnouncePresence(ctx context.Context) error {
	if atomic.LoadInt32(&p.running) == 0 {
		return protocol.NewError(protocol.InvalidState, "participant not started", nil)
	}

	msg := protocol.FromDeviceInfo(p.self, true)
	payload, err := protocol.MarshalAnnouncement(msg)
	if err != nil {
		return protocol.NewError(protocol.IO, "marshal announcement", err)
	}

	var sendErr error
	var elapsed time.Duration
	for i, delay := range announceRetryDelays {
		wait := delay - elapsed
		elapsed = delay
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if _, err := p.conn.WriteTo(payload, nil, p.peer); err != nil {
			sendErr = err
			p.log.Debug("announce send failed", "attempt", i, "error", err)
		}
	}
	return sendErr
}

// Subscribe registers a new OnDiscovered consumer.
func (p *Participant) Subscribe() <-chan protocol.DeviceInfo {
	return p.subs.add()
}

// Peers returns every peer observed so far.
func (p *Participant) Peers() []protocol.DeviceInfo {
	return p.peers.List()
}

func (p *Participant) receiveLoop(ctx context.Context) {
	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			return
		}
		_ = p.conn.SetReadDeadline(time.Now().Add(receiveTimeout))
		n, _, src, err := p.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.log.Debug("discovery read error", "error", err)
			continue
		}
		p.handleDatagram(ctx, buf[:n], src)
	}
}

func (p *Participant) handleDatagram(ctx context.Context, data []byte, src net.Addr) {
	msg, err := protocol.UnmarshalAnnouncement(data)
	if err != nil {
		return
	}
	if msg.Fingerprint == p.self.Fingerprint {
		return
	}

	ip, _, err := net.SplitHostPort(src.String())
	if err != nil {
		ip = src.String()
	}

	info := msg.ToDeviceInfo(ip)
	if p.peers.Add(info) {
		p.subs.publish(info)
	}

	if msg.IsAnnouncement() {
		go respondToAnnouncement(ctx, p.httpClient, p.conn, p.peer, p.self, info, p.log)
	}
}
