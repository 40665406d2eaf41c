package naming

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoice-scanner/internal/invoice"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestBuildName(t *testing.T) {
	amount := decimal.RequireFromString("15.5")
	id := invoice.Identity{Number: "87654321", Amount: &amount}

	assert.Equal(t, "[¥15.50]87654321.pdf", BuildName(id, ".pdf", true))
	assert.Equal(t, "87654321.pdf", BuildName(id, ".pdf", false))
}

func TestPolicy_Rename(t *testing.T) {
	t.Run("plain rename", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "upload-1.pdf")
		touch(t, src)

		p := NewPolicy(nil)
		dst, err := p.Rename(src, "87654321.pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "87654321.pdf"), dst)

		_, err = os.Stat(dst)
		assert.NoError(t, err)
		_, err = os.Stat(src)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("collision suffixes before the extension", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "87654321.pdf"))
		touch(t, filepath.Join(dir, "87654321_1.pdf"))
		src := filepath.Join(dir, "upload-2.pdf")
		touch(t, src)

		p := NewPolicy(nil)
		dst, err := p.Rename(src, "87654321.pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "87654321_2.pdf"), dst)
	})

	t.Run("already canonical is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "87654321.pdf")
		touch(t, src)

		p := NewPolicy(nil)
		dst, err := p.Rename(src, "87654321.pdf")
		require.NoError(t, err)
		assert.Equal(t, src, dst)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("missing source fails", func(t *testing.T) {
		dir := t.TempDir()
		p := NewPolicy(nil)
		_, err := p.Rename(filepath.Join(dir, "gone.pdf"), "87654321.pdf")
		assert.Error(t, err)
	})
}

func TestSuffixed(t *testing.T) {
	assert.Equal(t, "a_1.pdf", suffixed("a.pdf", 1))
	assert.Equal(t, "[¥15.50]87654321_3.ofd", suffixed("[¥15.50]87654321.ofd", 3))
	assert.Equal(t, "noext_2", suffixed("noext", 2))
}
