// Package transfer implements the send-side orchestrator: resolving a
// target, classifying inputs into file or inline-text sources, and
// driving the prepare-upload/upload sequence against pkg/client.
// Grounded on original_source/src/cli/commands/send.rs's control flow,
// restructured as a library usable from both the send CLI command and
// the TUI rather than inlined into one command handler.
package transfer

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lanshare/lanshare/pkg/protocol"
)

// Kind distinguishes the two ways a FileSource can be delivered.
type Kind int

const (
	// KindPath sources its bytes from a file on disk.
	KindPath Kind = iota
	// KindText sources its bytes from an inline string, delivered as the
	// FileMetadata's preview and also uploaded whenever the receiver
	// grants it a token (1 MiB or larger, or sent alongside a file).
	KindText
)

// FileSource pairs a FileMetadata entry with where its bytes actually
// live, since the metadata sent to the peer never carries a local path.
type FileSource struct {
	Kind     Kind
	Path     string
	Text     string
	Metadata protocol.FileMetadata
}

// BuildSources classifies each input: an input naming an existing file on
// disk becomes a Path source; anything else is treated as literal text,
// matching original_source's path-exists-or-text heuristic.
func BuildSources(inputs []string) ([]FileSource, error) {
	sources := make([]FileSource, 0, len(inputs))
	for _, input := range inputs {
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			meta, err := buildPathMetadata(input, info.Size())
			if err != nil {
				return nil, err
			}
			sources = append(sources, FileSource{Kind: KindPath, Path: input, Metadata: meta})
			continue
		}
		sources = append(sources, FileSource{Kind: KindText, Text: input, Metadata: buildTextMetadata(input)})
	}
	return sources, nil
}

func buildPathMetadata(path string, size int64) (protocol.FileMetadata, error) {
	fileType := mime.TypeByExtension(filepath.Ext(path))
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	return protocol.FileMetadata{
		ID:       uuid.NewString(),
		FileName: filepath.Base(path),
		Size:     size,
		FileType: fileType,
	}, nil
}

func buildTextMetadata(text string) protocol.FileMetadata {
	return protocol.FileMetadata{
		ID:       uuid.NewString(),
		FileName: fmt.Sprintf("%s.txt", uuid.NewString()),
		Size:     int64(len(text)),
		FileType: "text/plain",
		Preview:  &text,
	}
}

// Declared builds the fileId -> FileMetadata map a prepare-upload request
// sends, indexed the same way Send later looks sources up by id.
func Declared(sources []FileSource) map[string]protocol.FileMetadata {
	out := make(map[string]protocol.FileMetadata, len(sources))
	for _, s := range sources {
		out[s.Metadata.ID] = s.Metadata
	}
	return out
}
