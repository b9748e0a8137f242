package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "pop_march.pdf", SanitizeFilename("pop march.pdf"))
	assert.Equal(t, "receipt.png", SanitizeFilename("../../receipt.png"))
	assert.Equal(t, "file", SanitizeFilename(""))
	assert.Equal(t, "a_b_c.jpg", SanitizeFilename("a/b\x00c.jpg"))
}

func TestAllowedExtension(t *testing.T) {
	allowed := []string{".pdf", ".png", ".jpg"}
	assert.True(t, AllowedExtension("proof.PDF", allowed))
	assert.True(t, AllowedExtension("proof.png", allowed))
	assert.False(t, AllowedExtension("proof.exe", allowed))
	assert.False(t, AllowedExtension("proof", allowed))
	assert.False(t, AllowedExtension("proof.pdf", nil))
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.SaveUpload("my proof.pdf", 1, bytes.NewBufferString("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_1_my_proof.pdf"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}
