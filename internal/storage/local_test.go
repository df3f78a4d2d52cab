package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("stream aborted")
}

func TestSave_WritesBlob(t *testing.T) {
	s, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	n, err := s.Save("blob-1.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	rc, err := s.Open("blob-1.txt")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestSave_SizeLimitRemovesPartial(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, 4)
	require.NoError(t, err)

	_, err = s.Save("big.bin", bytes.NewReader([]byte("too large")))
	require.ErrorIs(t, err, ErrSizeLimitExceeded)

	require.False(t, s.Exists("big.bin"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSave_AtLimitSucceeds(t *testing.T) {
	s, err := NewLocal(t.TempDir(), 5)
	require.NoError(t, err)

	n, err := s.Save("ok.bin", strings.NewReader("12345"))
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
}

func TestSave_StreamErrorRemovesPartial(t *testing.T) {
	s, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = s.Save("bad.bin", brokenReader{})
	require.Error(t, err)
	require.False(t, s.Exists("bad.bin"))
}

func TestOpen_Missing(t *testing.T) {
	s, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = s.Open("nope.txt")
	require.ErrorIs(t, err, ErrBlobMissing)
}

func TestDelete(t *testing.T) {
	s, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = s.Save("gone.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("gone.txt"))
	require.False(t, s.Exists("gone.txt"))
	require.ErrorIs(t, s.Delete("gone.txt"), ErrBlobMissing)
}

func TestPath_JoinsRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, 0)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "a.txt"), s.Path("a.txt"))

	// Open accepts both blob names and recorded metadata paths.
	_, err = s.Save("a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	rc, err := s.Open(s.Path("a.txt"))
	require.NoError(t, err)
	require.NoError(t, rc.Close())
}
