package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanshare/lanshare/pkg/consent"
	"github.com/lanshare/lanshare/pkg/protocol"
)

func newTestServer(t *testing.T, decide func(*consent.PendingTransfer) bool) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	bridge := consent.New()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go consent.RunDecider(ctx, bridge, consent.DeciderFunc(func(_ context.Context, p *consent.PendingTransfer) bool {
		return decide(p)
	}))

	srv := New(Config{
		Self:    protocol.DeviceInfo{Alias: "receiver", Fingerprint: "recv-fp", Protocol: protocol.ProtoHTTP},
		SaveDir: dir,
		Bridge:  bridge,
	})
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestInfoReturnsSelf(t *testing.T) {
	_, ts := newTestServer(t, func(*consent.PendingTransfer) bool { return true })
	resp, err := http.Get(ts.URL + protocol.APIPrefix + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPrepareUploadBinaryAcceptedThenUploaded(t *testing.T) {
	_, ts := newTestServer(t, func(*consent.PendingTransfer) bool { return true })

	files := map[string]protocol.FileMetadata{
		"f1": {ID: "f1", FileName: "photo.jpg", Size: 3, FileType: "image/jpeg"},
	}
	body, err := protocol.MarshalPrepareUploadRequest(protocol.PrepareUploadRequest{
		Info:  protocol.DeviceInfo{Alias: "sender", Fingerprint: "send-fp"},
		Files: files,
	})
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+protocol.APIPrefix+"/prepare-upload", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out protocol.PrepareUploadResponse
	require.NoError(t, protocol.UnmarshalPrepareUploadResponse(mustReadAll(t, resp), &out))
	require.NotEmpty(t, out.SessionID)
	token, ok := out.Files["f1"]
	require.True(t, ok)

	uploadURL := ts.URL + protocol.APIPrefix + "/upload?sessionId=" + out.SessionID + "&fileId=f1&token=" + token
	uploadResp, err := http.Post(uploadURL, "application/octet-stream", bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	defer uploadResp.Body.Close()
	assert.Equal(t, http.StatusOK, uploadResp.StatusCode)
}

func TestPrepareUploadSecondConcurrentRequestIsBlocked(t *testing.T) {
	firstOffered := make(chan struct{})
	release := make(chan struct{})
	_, ts := newTestServer(t, func(*consent.PendingTransfer) bool {
		close(firstOffered)
		<-release
		return true
	})

	body := func(alias, fileID string) []byte {
		b, err := protocol.MarshalPrepareUploadRequest(protocol.PrepareUploadRequest{
			Info:  protocol.DeviceInfo{Alias: alias, Fingerprint: alias + "-fp"},
			Files: map[string]protocol.FileMetadata{fileID: {ID: fileID, FileName: "a.txt", Size: 1}},
		})
		require.NoError(t, err)
		return b
	}

	firstDone := make(chan *http.Response, 1)
	go func() {
		resp := postJSON(t, ts.URL+protocol.APIPrefix+"/prepare-upload", body("sender-a", "f1"))
		firstDone <- resp
	}()

	select {
	case <-firstOffered:
	case <-time.After(2 * time.Second):
		t.Fatal("first prepare-upload never reached the consent bridge")
	}

	secondResp := postJSON(t, ts.URL+protocol.APIPrefix+"/prepare-upload", body("sender-b", "f2"))
	defer secondResp.Body.Close()
	assert.Equal(t, protocol.HTTPStatus(protocol.SessionBlocked), secondResp.StatusCode,
		"a prepare-upload arriving while another session is live must be blocked, not silently overwrite it")

	close(release)
	firstResp := <-firstDone
	defer firstResp.Body.Close()
	assert.Equal(t, http.StatusOK, firstResp.StatusCode)
}

func TestPrepareUploadMessageOnlyWritesFileAndReturnsNoContent(t *testing.T) {
	srv, ts := newTestServer(t, func(*consent.PendingTransfer) bool { return true })

	preview := "hello there"
	files := map[string]protocol.FileMetadata{
		"f1": {ID: "f1", FileName: "note.txt", Size: int64(len(preview)), Preview: &preview},
	}
	body, err := protocol.MarshalPrepareUploadRequest(protocol.PrepareUploadRequest{
		Info:  protocol.DeviceInfo{Alias: "sender", Fingerprint: "send-fp"},
		Files: files,
	})
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+protocol.APIPrefix+"/prepare-upload", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	entries := srv.Received()
	require.Len(t, entries, 1)
	written, err := os.ReadFile(srv.saveDir + "/" + entries[0].FileName)
	require.NoError(t, err)
	assert.Equal(t, preview, string(written))
}

func TestPrepareUploadRejectedReturnsForbidden(t *testing.T) {
	_, ts := newTestServer(t, func(*consent.PendingTransfer) bool { return false })

	body, err := protocol.MarshalPrepareUploadRequest(protocol.PrepareUploadRequest{
		Info:  protocol.DeviceInfo{Alias: "sender", Fingerprint: "send-fp"},
		Files: map[string]protocol.FileMetadata{"f1": {ID: "f1", FileName: "x.bin", Size: 1}},
	})
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+protocol.APIPrefix+"/prepare-upload", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUploadWithBadTokenIsForbidden(t *testing.T) {
	_, ts := newTestServer(t, func(*consent.PendingTransfer) bool { return true })

	uploadURL := ts.URL + protocol.APIPrefix + "/upload?sessionId=nope&fileId=f1&token=garbage"
	resp, err := http.Post(uploadURL, "application/octet-stream", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCancelAlwaysReturnsOK(t *testing.T) {
	_, ts := newTestServer(t, func(*consent.PendingTransfer) bool { return true })
	resp, err := http.Post(ts.URL+protocol.APIPrefix+"/cancel?sessionId=whatever", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionManagerCompletesOnlyWhenAllFilesUploaded(t *testing.T) {
	m := newSessionManager()
	s := newSession("sender", map[string]protocol.FileMetadata{
		"f1": {ID: "f1"},
		"f2": {ID: "f2"},
	})
	m.create(s)

	_, ok := m.touchAndMarkUploaded(s.id, "f1")
	require.True(t, ok)
	assert.NotNil(t, m.get(), "session must stay live until every declared file is uploaded")

	_, ok = m.touchAndMarkUploaded(s.id, "f2")
	require.True(t, ok)
	assert.Nil(t, m.get(), "session must clear once every declared file has been uploaded")
}

func TestSessionManagerTryInstallReplacesOnlyStaleSessions(t *testing.T) {
	m := newSessionManager()
	stale := newSession("sender", map[string]protocol.FileMetadata{"f1": {ID: "f1"}})
	stale.lastActivity = time.Now().Add(-sessionIdleTimeout - time.Second)
	m.create(stale)

	fresh := newSession("sender2", map[string]protocol.FileMetadata{"f2": {ID: "f2"}})
	require.True(t, m.tryInstall(fresh), "a stale session must not block a new install")
	assert.Equal(t, fresh.id, m.get().id)

	blocked := newSession("sender3", map[string]protocol.FileMetadata{"f3": {ID: "f3"}})
	assert.False(t, m.tryInstall(blocked), "a live session must block a second install")
	assert.Equal(t, fresh.id, m.get().id)
}

func mustReadAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes()
}
