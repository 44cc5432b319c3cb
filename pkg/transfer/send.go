package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lanshare/lanshare/internal/logging"
	"github.com/lanshare/lanshare/pkg/client"
	"github.com/lanshare/lanshare/pkg/protocol"
)

// Result summarizes a completed Send call for the CLI/TUI to report.
type Result struct {
	Target      protocol.DeviceInfo
	SessionID   string
	UploadedIDs []string
	MessageOnly bool
}

// Send implements the end-to-end flow from spec §4.4: resolveTarget
// (already done by the caller and passed in as target) → register (best
// effort) → prepareUpload → stream each file's body.
func Send(ctx context.Context, c *client.Client, target protocol.DeviceInfo, sources []FileSource, pin string, log logging.Logger) (Result, error) {
	if log == nil {
		log = logging.Nop{}
	}

	if peer, err := c.Register(ctx, target); err == nil {
		// The reply never carries the peer's IP, and its port/protocol may
		// be absent; keep the address that was actually reached.
		peer.IP, peer.Port, peer.Protocol = target.IP, target.Port, target.Protocol
		target = peer
	} else {
		log.Debug("register best-effort failed", "error", err)
	}

	declared := Declared(sources)
	resp, err := c.PrepareUpload(ctx, target, declared, pin)
	if err != nil {
		return Result{}, fmt.Errorf("prepare upload: %w", err)
	}

	if resp.SessionID == "" {
		return Result{Target: target, MessageOnly: true}, nil
	}

	byID := make(map[string]FileSource, len(sources))
	for _, s := range sources {
		byID[s.Metadata.ID] = s
	}

	uploaded := make([]string, 0, len(resp.Files))
	for fileID, token := range resp.Files {
		source, ok := byID[fileID]
		if !ok {
			return Result{}, fmt.Errorf("server acknowledged unknown file id %q", fileID)
		}

		body, closer, err := openBody(source)
		if err != nil {
			return Result{}, fmt.Errorf("open %s: %w", source.displayName(), err)
		}
		err = c.UploadFile(ctx, target, resp.SessionID, fileID, token, body)
		if closer != nil {
			closer.Close()
		}
		if err != nil {
			return Result{}, fmt.Errorf("upload %s: %w", source.displayName(), err)
		}
		uploaded = append(uploaded, fileID)
		log.Debug("uploaded", "file", source.displayName())
	}

	return Result{Target: target, SessionID: resp.SessionID, UploadedIDs: uploaded}, nil
}

func (s FileSource) displayName() string {
	if s.Kind == KindPath {
		return s.Path
	}
	return s.Metadata.FileName
}

// openBody returns a reader over the source's bytes, and an optional
// closer the caller must close once the upload completes. Text sources
// are posted directly from memory rather than round-tripping through a
// temp file the way original_source does, since Go can post an
// in-memory reader without one.
func openBody(s FileSource) (io.Reader, io.Closer, error) {
	if s.Kind == KindPath {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	return strings.NewReader(s.Text), nil, nil
}
