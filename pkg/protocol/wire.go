package protocol

import "github.com/bytedance/sonic"

// wireJSON is the codec used at every wire boundary (multicast datagrams
// and HTTP bodies that this package marshals directly, outside of gin's
// own binding). sonic is already part of this stack's dependency graph
// (gin can be built against it) and gives the discovery receive loop a
// faster decode path than encoding/json for a hot, high-fanout path.
var wireJSON = sonic.ConfigStd

// MarshalAnnouncement encodes an AnnouncementMessage for multicast.
func MarshalAnnouncement(m AnnouncementMessage) ([]byte, error) {
	return wireJSON.Marshal(m)
}

// UnmarshalAnnouncement decodes a multicast datagram. Callers must treat
// any error as "drop silently" per the discovery receive algorithm.
func UnmarshalAnnouncement(data []byte) (AnnouncementMessage, error) {
	var m AnnouncementMessage
	err := wireJSON.Unmarshal(data, &m)
	return m, err
}

// MarshalDeviceInfo encodes a DeviceInfo for the HTTP register handshake.
func MarshalDeviceInfo(d DeviceInfo) ([]byte, error) {
	return wireJSON.Marshal(d)
}

// UnmarshalDeviceInfo decodes a DeviceInfo response body.
func UnmarshalDeviceInfo(data []byte) (DeviceInfo, error) {
	var d DeviceInfo
	err := wireJSON.Unmarshal(data, &d)
	return d, err
}

// MarshalPrepareUploadRequest encodes the body of POST /prepare-upload.
func MarshalPrepareUploadRequest(r PrepareUploadRequest) ([]byte, error) {
	return wireJSON.Marshal(r)
}

// UnmarshalPrepareUploadRequest decodes the body of POST /prepare-upload.
func UnmarshalPrepareUploadRequest(data []byte) (PrepareUploadRequest, error) {
	var r PrepareUploadRequest
	err := wireJSON.Unmarshal(data, &r)
	return r, err
}

// UnmarshalPrepareUploadResponse decodes the 200 OK body of
// POST /prepare-upload into out.
func UnmarshalPrepareUploadResponse(data []byte, out *PrepareUploadResponse) error {
	return wireJSON.Unmarshal(data, out)
}

// MarshalPrepareUploadResponse encodes the 200 OK body of
// POST /prepare-upload.
func MarshalPrepareUploadResponse(r PrepareUploadResponse) ([]byte, error) {
	return wireJSON.Marshal(r)
}
