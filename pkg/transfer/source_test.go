package transfer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSourcesClassifiesExistingFileAsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	sources, err := BuildSources([]string{path})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, KindPath, sources[0].Kind)
	assert.Equal(t, "report.pdf", sources[0].Metadata.FileName)
	assert.EqualValues(t, 8, sources[0].Metadata.Size)
}

func TestBuildSourcesClassifiesNonexistentInputAsText(t *testing.T) {
	sources, err := BuildSources([]string{"hello world"})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, KindText, sources[0].Kind)
	require.NotNil(t, sources[0].Metadata.Preview)
	assert.Equal(t, "hello world", *sources[0].Metadata.Preview)
	assert.True(t, sources[0].Metadata.IsTextMessage())
}

func TestDeclaredIndexesByMetadataID(t *testing.T) {
	sources, err := BuildSources([]string{"a text message"})
	require.NoError(t, err)

	declared := Declared(sources)
	require.Len(t, declared, 1)
	for id, meta := range declared {
		assert.Equal(t, sources[0].Metadata.ID, id)
		assert.Equal(t, sources[0].Metadata.FileName, meta.FileName)
	}
}
