package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nguyengg/zipsten/stego"
	"github.com/stretchr/testify/assert"
)

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "a", "b")
	assert.NoError(t, os.MkdirAll(child, 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(root, Name), []byte(`
[zipsten]
mode = extra
chunk-size = 4KiB
lock = true

[s3]
profile = my-profile
`), 0644))

	l := &Loader{}
	name, err := l.Load(context.Background(), child)
	assert.NoErrorf(t, err, "Load() error = %v", err)
	assert.Equal(t, filepath.Join(root, Name), name)

	s, err := l.Settings()
	assert.NoErrorf(t, err, "Settings() error = %v", err)
	assert.Equal(t, Settings{Mode: stego.Extra, ChunkSize: 4096, Lock: true}, s)
	assert.Equal(t, "my-profile", l.AWSProfile())

	l.Profile = "override"
	assert.Equal(t, "override", l.AWSProfile())
}

func TestLoader_Load_NotFound(t *testing.T) {
	l := &Loader{}
	name, err := l.Load(context.Background(), t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, name)

	s, err := l.Settings()
	assert.NoError(t, err)
	assert.Equal(t, Settings{}, s)
	assert.Empty(t, l.AWSProfile())
}

func TestLoader_Settings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "mode", content: "[zipsten]\nmode = comment\n"},
		{name: "chunk-size", content: "[zipsten]\nchunk-size = lots\n"},
		{name: "zero chunk-size", content: "[zipsten]\nchunk-size = 0\n"},
		{name: "lock", content: "[zipsten]\nlock = maybe\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			assert.NoError(t, os.WriteFile(filepath.Join(dir, Name), []byte(tt.content), 0644))

			l := &Loader{}
			_, err := l.Load(context.Background(), dir)
			assert.NoError(t, err)

			_, err = l.Settings()
			assert.Error(t, err)
		})
	}
}
