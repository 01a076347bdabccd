package cmd

import (
	"archive/zip"
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/nguyengg/zipsten"
	"github.com/stretchr/testify/assert"
)

func writeZip(t *testing.T, entries ...string) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "a.zip")
	f, err := os.Create(name)
	assert.NoError(t, err)

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e, Method: zip.Store})
		assert.NoError(t, err)
		_, err = w.Write([]byte("contents of " + e))
		assert.NoError(t, err)
	}

	assert.NoError(t, zw.Close())
	assert.NoError(t, f.Close())
	return name
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	name := writeZip(t, "a.txt", "dir/b.txt")
	assert.NoError(t, zipsten.InsertExtra(ctx, name, []byte("secret")))

	buf := &bytes.Buffer{}
	err := verify(ctx, name, log.New(buf, "", 0))
	assert.NoErrorf(t, err, "verify() error = %v", err)
	assert.Contains(t, buf.String(), "read 2 files")
	assert.Contains(t, buf.String(), "extra mode: 6 B of hidden data")
}

func TestVerify_Corrupt(t *testing.T) {
	name := writeZip(t, "a.txt")
	data, err := os.ReadFile(name)
	assert.NoError(t, err)

	// flip a byte of the stored contents so the CRC-32 no longer matches.
	i := bytes.Index(data, []byte("contents of a.txt"))
	assert.NotEqual(t, -1, i)
	data[i] ^= 0xff
	assert.NoError(t, os.WriteFile(name, data, 0644))

	err = verify(context.Background(), name, log.New(&bytes.Buffer{}, "", 0))
	assert.Error(t, err)
}
