// Package client implements the four outbound HTTP(S) round trips a
// sending node makes: register, prepare-upload, upload, and target
// probing. TLS verification is intentionally disabled throughout — trust
// is established by fingerprint comparison out of band, never by the
// certificate chain (spec §9).
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/lanshare/lanshare/pkg/discovery"
	"github.com/lanshare/lanshare/pkg/protocol"
)

// ProbeTimeout bounds a single target probe attempt (spec §5).
const ProbeTimeout = 2 * time.Second

// Client performs outbound transfer-protocol requests on behalf of a
// local device.
type Client struct {
	self DeviceInfoProvider
	http *http.Client
}

// DeviceInfoProvider supplies the local device identity to attach to
// outbound requests. It is an interface (rather than a bare
// protocol.DeviceInfo) so callers can swap in a live device whose IP is
// resolved lazily.
type DeviceInfoProvider interface {
	Self() protocol.DeviceInfo
}

// StaticDevice is the common DeviceInfoProvider: a fixed DeviceInfo.
type StaticDevice protocol.DeviceInfo

func (s StaticDevice) Self() protocol.DeviceInfo { return protocol.DeviceInfo(s) }

// New builds a Client that identifies itself as self on every request.
func New(self DeviceInfoProvider) *Client {
	return &Client{
		self: self,
		http: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // spec §9: trust by fingerprint, not chain
			},
		},
	}
}

func targetURL(target protocol.DeviceInfo, path string) string {
	return fmt.Sprintf("%s://%s:%d%s%s", target.Protocol, target.IP, target.Port, protocol.APIPrefix, path)
}

// Register posts the local device's identity to target and returns the
// peer's DeviceInfo if it replies with a parseable one, or target
// unchanged if the body doesn't parse (spec §4.4: still a success).
func (c *Client) Register(ctx context.Context, target protocol.DeviceInfo) (protocol.DeviceInfo, error) {
	body, err := protocol.MarshalDeviceInfo(c.self.Self())
	if err != nil {
		return protocol.DeviceInfo{}, protocol.NewError(protocol.IO, "marshal device info", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL(target, "/register"), bytes.NewReader(body))
	if err != nil {
		return protocol.DeviceInfo{}, protocol.NewError(protocol.IO, "build register request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return protocol.DeviceInfo{}, protocol.NewError(protocol.Network, "register request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return protocol.DeviceInfo{}, protocol.NewHTTPError(protocol.Rejected, resp.StatusCode, "registration rejected")
	case resp.StatusCode/100 != 2:
		return protocol.DeviceInfo{}, protocol.NewHTTPError(protocol.HTTPFailed, resp.StatusCode, "registration failed")
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || len(respBody) == 0 {
		return target, nil
	}
	info, err := protocol.UnmarshalDeviceInfo(respBody)
	if err != nil {
		return target, nil
	}
	return info, nil
}

// PrepareUpload requests permission to upload files to target, optionally
// supplying a pin. See spec §4.4 for the status-code-to-error mapping.
func (c *Client) PrepareUpload(ctx context.Context, target protocol.DeviceInfo, files map[string]protocol.FileMetadata, pin string) (protocol.PrepareUploadResponse, error) {
	reqBody := protocol.PrepareUploadRequest{Info: c.self.Self(), Files: files}
	body, err := protocol.MarshalPrepareUploadRequest(reqBody)
	if err != nil {
		return protocol.PrepareUploadResponse{}, protocol.NewError(protocol.IO, "marshal prepare-upload request", err)
	}

	url := targetURL(target, "/prepare-upload")
	if pin != "" {
		url = fmt.Sprintf("%s?pin=%s", url, pin)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return protocol.PrepareUploadResponse{}, protocol.NewError(protocol.IO, "build prepare-upload request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return protocol.PrepareUploadResponse{}, protocol.NewError(protocol.Network, "prepare-upload request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return protocol.PrepareUploadResponse{}, protocol.NewError(protocol.IO, "read prepare-upload response", err)
		}
		var out protocol.PrepareUploadResponse
		if err := protocol.UnmarshalPrepareUploadResponse(respBody, &out); err != nil {
			return protocol.PrepareUploadResponse{}, protocol.NewError(protocol.InvalidDevice, "decode prepare-upload response", err)
		}
		return out, nil
	case http.StatusNoContent:
		return protocol.PrepareUploadResponse{SessionID: "", Files: map[string]string{}}, nil
	case http.StatusUnauthorized:
		return protocol.PrepareUploadResponse{}, protocol.NewHTTPError(protocol.InvalidPin, resp.StatusCode, "invalid pin")
	case http.StatusForbidden:
		return protocol.PrepareUploadResponse{}, protocol.NewHTTPError(protocol.Rejected, resp.StatusCode, "rejected")
	case http.StatusConflict:
		return protocol.PrepareUploadResponse{}, protocol.NewHTTPError(protocol.SessionBlocked, resp.StatusCode, "session blocked")
	case http.StatusTooManyRequests:
		return protocol.PrepareUploadResponse{}, protocol.NewHTTPError(protocol.RateLimited, resp.StatusCode, "rate limited")
	case http.StatusInternalServerError:
		return protocol.PrepareUploadResponse{}, protocol.NewError(protocol.Network, "server error", nil)
	default:
		return protocol.PrepareUploadResponse{}, protocol.NewHTTPError(protocol.HTTPFailed, resp.StatusCode, "prepare-upload failed")
	}
}

// UploadFile streams body as the raw request body of the upload request
// authorized by (sessionID, fileID, token).
func (c *Client) UploadFile(ctx context.Context, target protocol.DeviceInfo, sessionID, fileID, token string, body io.Reader) error {
	url := fmt.Sprintf("%s?sessionId=%s&fileId=%s&token=%s", targetURL(target, "/upload"), sessionID, fileID, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return protocol.NewError(protocol.IO, "build upload request", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return protocol.NewError(protocol.Network, "upload request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return protocol.NewHTTPError(protocol.HTTPFailed, resp.StatusCode, "upload failed")
}

// resolveWindow bounds how long ResolveTarget waits for a matching
// discovery announcement when spec does not parse as a bare IP.
const resolveWindow = 5 * time.Second

// ResolveTarget implements spec §4.4's resolveTarget: a bare IP is probed
// directly with GET /info (HTTPS first, then HTTP, each under
// ProbeTimeout); anything else starts an ephemeral discovery participant,
// announces, and waits up to resolveWindow for a peer whose alias or IP
// matches spec.
func (c *Client) ResolveTarget(ctx context.Context, target string) (protocol.DeviceInfo, error) {
	if ip := net.ParseIP(target); ip != nil {
		return c.probeIP(ctx, ip.String())
	}
	return c.resolveByDiscovery(ctx, target)
}

func (c *Client) probeIP(ctx context.Context, ip string) (protocol.DeviceInfo, error) {
	for _, proto := range []protocol.Protocol{protocol.ProtoHTTPS, protocol.ProtoHTTP} {
		probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
		info, err := c.probeOnce(probeCtx, proto, ip, protocol.DefaultMulticastPort)
		cancel()
		if err == nil {
			info.IP = ip
			info.Protocol = proto
			return info, nil
		}
	}
	return protocol.DeviceInfo{}, protocol.NewError(protocol.Network, fmt.Sprintf("no reachable node at %s", ip), nil)
}

// probeOnce issues GET /info against ip:port over proto. port is a
// parameter (rather than always DefaultMulticastPort) so tests can point
// it at an ephemeral listener.
func (c *Client) probeOnce(ctx context.Context, proto protocol.Protocol, ip string, port int) (protocol.DeviceInfo, error) {
	url := fmt.Sprintf("%s://%s:%d%s/info", proto, ip, port, protocol.APIPrefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return protocol.DeviceInfo{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return protocol.DeviceInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return protocol.DeviceInfo{}, fmt.Errorf("probe %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.DeviceInfo{}, err
	}
	return protocol.UnmarshalDeviceInfo(body)
}

func (c *Client) resolveByDiscovery(ctx context.Context, target string) (protocol.DeviceInfo, error) {
	participant := discovery.New(discovery.Config{Self: c.self.Self()})
	if err := participant.Start(ctx); err != nil {
		return protocol.DeviceInfo{}, err
	}
	defer participant.Stop()

	sub := participant.Subscribe()
	announceCtx, cancel := context.WithTimeout(ctx, resolveWindow)
	defer cancel()
	go participant.AnnouncePresence(announceCtx)

	timeout := time.NewTimer(resolveWindow)
	defer timeout.Stop()

	for {
		select {
		case d := <-sub:
			if d.Alias == target || d.IP == target {
				return d, nil
			}
		case <-timeout.C:
			return protocol.DeviceInfo{}, protocol.NewError(protocol.InvalidDevice, fmt.Sprintf("no peer matching %q found", target), nil)
		case <-ctx.Done():
			return protocol.DeviceInfo{}, ctx.Err()
		}
	}
}
