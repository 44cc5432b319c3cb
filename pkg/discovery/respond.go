package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/net/ipv4"

	"github.com/lanshare/lanshare/internal/logging"
	"github.com/lanshare/lanshare/pkg/protocol"
)

// respondToAnnouncement implements the hybrid UDP-then-HTTP responder from
// spec §4.2 step 5: first try to complete the handshake over HTTP(S)
// register, since that also hands the peer a body it can parse for a
// DeviceInfo; fall back to a plain (non-announcement) UDP packet when the
// peer's HTTP server is unreachable — common behind strict firewalls,
// grounded on original_source's respond_to_announcement.
func respondToAnnouncement(ctx context.Context, client *http.Client, conn *ipv4.PacketConn, group *net.UDPAddr, self, peer protocol.DeviceInfo, log logging.Logger) {
	if registerOverHTTP(ctx, client, self, peer) {
		return
	}

	log.Debug("http register failed, falling back to UDP response", "peer", peer.Fingerprint)
	msg := protocol.FromDeviceInfo(self, false)
	msg.Announce = false
	off := false
	msg.Announcement = &off

	payload, err := protocol.MarshalAnnouncement(msg)
	if err != nil {
		log.Debug("marshal fallback response failed", "error", err)
		return
	}
	if _, err := conn.WriteTo(payload, nil, group); err != nil {
		log.Debug("udp fallback response failed", "error", err)
	}
}

func registerOverHTTP(ctx context.Context, client *http.Client, self, peer protocol.DeviceInfo) bool {
	body, err := protocol.MarshalDeviceInfo(self)
	if err != nil {
		return false
	}

	url := fmt.Sprintf("%s://%s:%d%s/register", peer.Protocol, peer.IP, peer.Port, protocol.APIPrefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode/100 == 2
}
