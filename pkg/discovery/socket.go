package discovery

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// bindMulticastSocket binds 0.0.0.0:port with address- and (platform
// permitting) port-reuse enabled via reuseSocketControl, then joins the
// multicast group on the system's default interface. Multiple processes
// on the same host (a TUI and a one-shot `discover` scan) can therefore
// both join the group, per spec §4.2's rationale.
func bindMulticastSocket(groupAddr string, port int) (*ipv4.PacketConn, error) {
	lc := net.ListenConfig{Control: reuseSocketControl}

	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind multicast socket: %w", err)
	}

	group := net.ParseIP(groupAddr)
	if group == nil {
		conn.Close()
		return nil, fmt.Errorf("invalid multicast address %q", groupAddr)
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(nil, &net.UDPAddr{IP: group}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join multicast group %s: %w", groupAddr, err)
	}

	return pc, nil
}
