package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsTextMessage(t *testing.T) {
	preview := "hello"
	cases := []struct {
		name string
		meta FileMetadata
		want bool
	}{
		{"no preview", FileMetadata{Size: 10}, false},
		{"preview under limit", FileMetadata{Size: 5, Preview: &preview}, true},
		{"preview at limit", FileMetadata{Size: textMessageSizeLimit, Preview: &preview}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.meta.IsTextMessage())
		})
	}
}

func TestAllMessageOnly(t *testing.T) {
	preview := "hi"
	require.False(t, AllMessageOnly(nil))
	require.True(t, AllMessageOnly(map[string]FileMetadata{
		"a": {Size: 2, Preview: &preview},
	}))
	require.False(t, AllMessageOnly(map[string]FileMetadata{
		"a": {Size: 2, Preview: &preview},
		"b": {Size: 10},
	}))
}

func TestAnnouncementRoundTrip(t *testing.T) {
	d := DeviceInfo{
		Alias:       "tester",
		Version:     ProtocolVersion,
		Fingerprint: "abc123",
		Port:        53317,
		Protocol:    ProtoHTTPS,
	}
	msg := FromDeviceInfo(d, true)
	require.True(t, msg.IsAnnouncement())
	require.NotNil(t, msg.Announcement)
	require.True(t, *msg.Announcement)

	data, err := MarshalAnnouncement(msg)
	require.NoError(t, err)

	decoded, err := UnmarshalAnnouncement(data)
	require.NoError(t, err)
	require.Equal(t, msg.Fingerprint, decoded.Fingerprint)
	require.True(t, decoded.IsAnnouncement())

	back := decoded.ToDeviceInfo("10.0.0.5")
	require.Equal(t, "10.0.0.5", back.IP)
	require.Equal(t, d.Alias, back.Alias)
}

func TestAnnouncementAcceptsLegacyFlagAlone(t *testing.T) {
	announcement := true
	msg := AnnouncementMessage{Announce: false, Announcement: &announcement}
	require.True(t, msg.IsAnnouncement())
}

func TestFileMetadataDetailsTimestamps(t *testing.T) {
	now := time.Now()
	f := FileMetadata{Metadata: &FileMetadataDetails{Modified: &now}}
	require.NotNil(t, f.Metadata.Modified)
}
