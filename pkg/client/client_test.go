package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanshare/lanshare/pkg/protocol"
)

func selfDevice() StaticDevice {
	return StaticDevice{Alias: "sender", Fingerprint: "sender-fp", Protocol: protocol.ProtoHTTP}
}

func newTargetOf(t *testing.T, server *httptest.Server) protocol.DeviceInfo {
	t.Helper()
	addr := server.Listener.Addr().(*net.TCPAddr)
	return protocol.DeviceInfo{IP: "127.0.0.1", Port: addr.Port, Protocol: protocol.ProtoHTTP, Fingerprint: "recv-fp"}
}

func TestRegisterReturnsPeerDeviceInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, protocol.APIPrefix+"/register", r.URL.Path)
		body, err := protocol.MarshalDeviceInfo(protocol.DeviceInfo{Alias: "receiver", Fingerprint: "recv-fp"})
		require.NoError(t, err)
		w.Write(body)
	}))
	defer server.Close()

	c := New(selfDevice())
	got, err := c.Register(context.Background(), newTargetOf(t, server))
	require.NoError(t, err)
	assert.Equal(t, "receiver", got.Alias)
}

func TestRegisterForbiddenMapsToRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := New(selfDevice())
	_, err := c.Register(context.Background(), newTargetOf(t, server))
	require.Error(t, err)
	kind, ok := protocol.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, protocol.Rejected, kind)
}

func TestPrepareUploadStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		wantKind protocol.Kind
	}{
		{"invalid pin", http.StatusUnauthorized, protocol.InvalidPin},
		{"rejected", http.StatusForbidden, protocol.Rejected},
		{"session blocked", http.StatusConflict, protocol.SessionBlocked},
		{"rate limited", http.StatusTooManyRequests, protocol.RateLimited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			c := New(selfDevice())
			_, err := c.PrepareUpload(context.Background(), newTargetOf(t, server), map[string]protocol.FileMetadata{}, "")
			require.Error(t, err)
			kind, ok := protocol.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantKind, kind)
		})
	}
}

func TestPrepareUploadNoContentSynthesizesEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(selfDevice())
	resp, err := c.PrepareUpload(context.Background(), newTargetOf(t, server), map[string]protocol.FileMetadata{}, "")
	require.NoError(t, err)
	assert.Empty(t, resp.SessionID)
}

func TestPrepareUploadOKDecodesTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := protocol.MarshalPrepareUploadResponse(protocol.PrepareUploadResponse{
			SessionID: "sess-1",
			Files:     map[string]string{"f1": "sess-1_f1"},
		})
		w.Write(body)
	}))
	defer server.Close()

	c := New(selfDevice())
	resp, err := c.PrepareUpload(context.Background(), newTargetOf(t, server), map[string]protocol.FileMetadata{"f1": {ID: "f1"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "sess-1_f1", resp.Files["f1"])
}

func TestUploadFileSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sess-1", r.URL.Query().Get("sessionId"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(selfDevice())
	err := c.UploadFile(context.Background(), newTargetOf(t, server), "sess-1", "f1", "sess-1_f1", nil)
	require.NoError(t, err)
}

func TestProbeOnceDecodesDeviceInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, protocol.APIPrefix+"/info", r.URL.Path)
		body, _ := protocol.MarshalDeviceInfo(protocol.DeviceInfo{Alias: "receiver", Fingerprint: "recv-fp"})
		w.Write(body)
	}))
	defer server.Close()

	c := New(selfDevice())
	addr := server.Listener.Addr().(*net.TCPAddr)
	got, err := c.probeOnce(context.Background(), protocol.ProtoHTTP, "127.0.0.1", addr.Port)
	require.NoError(t, err)
	assert.Equal(t, "receiver", got.Alias)
}

func TestProbeOnceErrorsOnNonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New(selfDevice())
	addr := server.Listener.Addr().(*net.TCPAddr)
	_, err := c.probeOnce(context.Background(), protocol.ProtoHTTP, "127.0.0.1", addr.Port)
	require.Error(t, err)
}
