package uploads

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Sweep(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.pdf")
	fresh := filepath.Join(dir, "fresh.pdf")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	s := NewStore(10*time.Minute, time.Minute, nil)
	s.Add(old)
	s.Add(fresh)
	require.Equal(t, 2, s.Len())

	// Nothing is old enough yet.
	assert.Equal(t, 0, s.Sweep(time.Now()))
	assert.Equal(t, 2, s.Len())

	// An hour later both have expired.
	removed := s.Sweep(time.Now().Add(time.Hour))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, s.Len())

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_RemoveUntracks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claimed.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s := NewStore(time.Minute, time.Minute, nil)
	s.Add(path)
	s.Remove(path)

	assert.Equal(t, 0, s.Sweep(time.Now().Add(time.Hour)))
	_, err := os.Stat(path)
	assert.NoError(t, err, "untracked file survives the sweep")
}

func TestStore_SweepMissingFile(t *testing.T) {
	s := NewStore(time.Minute, time.Minute, nil)
	s.Add(filepath.Join(t.TempDir(), "already-gone.pdf"))

	// A file deleted out from under the store is not an error.
	assert.Equal(t, 1, s.Sweep(time.Now().Add(time.Hour)))
	assert.Equal(t, 0, s.Len())
}
