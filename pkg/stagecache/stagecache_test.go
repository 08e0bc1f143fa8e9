package stagecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "OBJ.tiff")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))
	absent := filepath.Join(dir, "HOCR.hocr")

	tests := []struct {
		name      string
		path      string
		overwrite bool
		want      Action
	}{
		{"absent", absent, false, Generate},
		{"absent with overwrite", absent, true, Generate},
		{"present", present, false, Skip},
		{"present with overwrite", present, true, Regenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.path, tt.overwrite)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDirectory(t *testing.T) {
	_, err := Resolve(t.TempDir(), false)
	assert.Error(t, err)
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PDF.pdf")

	run, err := Prepare(path, false, nil)
	require.NoError(t, err)
	assert.True(t, run)

	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	run, err = Prepare(path, false, nil)
	require.NoError(t, err)
	assert.False(t, run)
	assert.FileExists(t, path)

	run, err = Prepare(path, true, nil)
	require.NoError(t, err)
	assert.True(t, run)
	assert.NoFileExists(t, path)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "generate", Generate.String())
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "regenerate", Regenerate.String())
	assert.Equal(t, "unknown", Action(42).String())
}
