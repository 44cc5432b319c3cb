// Package protocol defines the wire types and identifiers for the
// LocalSend v2 handshake: device identity, announcements, sessions,
// file metadata, and per-file upload tokens.
package protocol

import "time"

// DefaultMulticastAddress and DefaultMulticastPort locate the discovery
// group. Both the discovery participant and the receiver server bind to
// DefaultMulticastPort so that a TUI and a one-shot scan can coexist.
const (
	DefaultMulticastAddress = "224.0.0.167"
	DefaultMulticastPort    = 53317
	ProtocolVersion         = "2.1"
	APIPrefix               = "/api/localsend/v2"
)

// DeviceType enumerates the advertised kind of node.
type DeviceType string

const (
	DeviceMobile   DeviceType = "mobile"
	DeviceDesktop  DeviceType = "desktop"
	DeviceWeb      DeviceType = "web"
	DeviceHeadless DeviceType = "headless"
	DeviceServer   DeviceType = "server"
)

// Protocol is the transport a device advertises for its HTTP API.
type Protocol string

const (
	ProtoHTTP  Protocol = "http"
	ProtoHTTPS Protocol = "https"
)

// DeviceInfo is a peer's advertised identity. Two DeviceInfo values
// describe the same device iff their Fingerprint fields match.
type DeviceInfo struct {
	Alias       string     `json:"alias"`
	Version     string     `json:"version"`
	DeviceModel string     `json:"deviceModel,omitempty"`
	DeviceType  DeviceType `json:"deviceType,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	Port        int        `json:"port"`
	Protocol    Protocol   `json:"protocol"`
	Download    bool       `json:"download"`

	// IP is populated by the receiver of an announcement or HTTP request;
	// the originator never serializes it over the wire.
	IP string `json:"-"`
}

// AnnouncementMessage is the JSON shape exchanged over UDP multicast. It
// carries the legacy Announcement alias alongside Announce: an
// implementer must accept a true value on either field.
type AnnouncementMessage struct {
	Alias        string     `json:"alias"`
	Version      string     `json:"version"`
	DeviceModel  string     `json:"deviceModel,omitempty"`
	DeviceType   DeviceType `json:"deviceType,omitempty"`
	Fingerprint  string     `json:"fingerprint"`
	Port         int        `json:"port"`
	Protocol     Protocol   `json:"protocol"`
	Download     bool       `json:"download"`
	Announce     bool       `json:"announce"`
	Announcement *bool      `json:"announcement,omitempty"`
}

// IsAnnouncement reports whether either flag marks the packet as an
// unsolicited announcement rather than a response.
func (m AnnouncementMessage) IsAnnouncement() bool {
	return m.Announce || (m.Announcement != nil && *m.Announcement)
}

// FromDeviceInfo builds the wire announcement for a local device, setting
// both the announce and legacy announcement fields to the same value for
// maximum peer compatibility.
func FromDeviceInfo(d DeviceInfo, announce bool) AnnouncementMessage {
	a := announce
	return AnnouncementMessage{
		Alias:        d.Alias,
		Version:      d.Version,
		DeviceModel:  d.DeviceModel,
		DeviceType:   d.DeviceType,
		Fingerprint:  d.Fingerprint,
		Port:         d.Port,
		Protocol:     d.Protocol,
		Download:     d.Download,
		Announce:     announce,
		Announcement: &a,
	}
}

// ToDeviceInfo synthesizes a DeviceInfo from a received announcement,
// stamping the source IP observed on the datagram or request.
func (m AnnouncementMessage) ToDeviceInfo(ip string) DeviceInfo {
	return DeviceInfo{
		Alias:       m.Alias,
		Version:     m.Version,
		DeviceModel: m.DeviceModel,
		DeviceType:  m.DeviceType,
		Fingerprint: m.Fingerprint,
		Port:        m.Port,
		Protocol:    m.Protocol,
		Download:    m.Download,
		IP:          ip,
	}
}

// FileMetadataDetails carries optional filesystem timestamps for a
// transferred file, supplementing the distilled spec with the detail the
// original Rust source keeps on FileMetadata.metadata.
type FileMetadataDetails struct {
	Modified *time.Time `json:"modified,omitempty"`
	Accessed *time.Time `json:"accessed,omitempty"`
}

// FileMetadata describes one file (or inline text message) offered in a
// prepare-upload request. Size == 0 is only valid when Preview is set;
// a Preview under 1 MiB marks the entry as a text message rather than a
// binary upload.
type FileMetadata struct {
	ID       string               `json:"id"`
	FileName string               `json:"fileName"`
	Size     int64                `json:"size"`
	FileType string               `json:"fileType"`
	SHA256   string               `json:"sha256,omitempty"`
	Preview  *string              `json:"preview,omitempty"`
	Metadata *FileMetadataDetails `json:"metadata,omitempty"`
}

// textMessageSizeLimit is the 1 MiB threshold under which a Preview-bearing
// entry is treated as an inline text message rather than scheduling an
// upload round trip.
const textMessageSizeLimit = 1 << 20

// IsTextMessage reports whether this entry should be delivered by writing
// Preview directly, rather than waiting for an /upload call.
func (f FileMetadata) IsTextMessage() bool {
	return f.Preview != nil && f.Size < textMessageSizeLimit
}

// PrepareUploadRequest is the body of POST /prepare-upload.
type PrepareUploadRequest struct {
	Info  DeviceInfo              `json:"info"`
	Files map[string]FileMetadata `json:"files"`
}

// PrepareUploadResponse is the 200 OK body of POST /prepare-upload: a
// token per accepted file.
type PrepareUploadResponse struct {
	SessionID string            `json:"sessionId"`
	Files     map[string]string `json:"files"`
}

// AllMessageOnly reports whether every file in the request is a text
// message per FileMetadata.IsTextMessage, and the map is non-empty. This
// implements the "message-only" classification from the prepare-upload
// procedure.
func AllMessageOnly(files map[string]FileMetadata) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !f.IsTextMessage() {
			return false
		}
	}
	return true
}
