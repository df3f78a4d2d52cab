package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localbucket/bucketd/internal/model"
)

// fakeClient records concurrency and call order, and can block on a gate or
// fail selected files.
type fakeClient struct {
	mu        sync.Mutex
	active    int
	maxActive int
	calls     []string
	gate      chan struct{}
	failNames map[string]bool
	pcts      []int
	delay     time.Duration
}

func (c *fakeClient) UploadFile(_ context.Context, name, _ string, r io.Reader, size int64, progress func(int)) (*model.File, error) {
	c.mu.Lock()
	c.active++
	if c.active > c.maxActive {
		c.maxActive = c.active
	}
	c.calls = append(c.calls, name)
	gate := c.gate
	pcts := c.pcts
	c.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	for _, p := range pcts {
		progress(p)
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.active--
	fail := c.failNames[name]
	c.mu.Unlock()

	if fail {
		return nil, errors.New("server rejected upload")
	}
	return &model.File{ID: 1, OriginalName: name, Size: size}, nil
}

func (c *fakeClient) seenMax() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxActive
}

func (c *fakeClient) callNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func tmpFiles(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("file-%d.txt", i))
		require.NoError(t, os.WriteFile(p, []byte("payload"), 0o644))
		paths = append(paths, p)
	}
	return paths
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestQueue_BoundedConcurrency(t *testing.T) {
	client := &fakeClient{delay: 20 * time.Millisecond}
	q := New(client, 3)

	ids := q.Add(tmpFiles(t, 10)...)
	require.Len(t, ids, 10)
	q.Wait()

	require.LessOrEqual(t, client.seenMax(), 3)
	require.Len(t, client.callNames(), 10)
	for _, task := range q.Tasks() {
		require.Equal(t, StatusCompleted, task.Status)
		require.Equal(t, 100, task.Progress)
		require.NotNil(t, task.Result)
	}
}

func TestQueue_DefaultConcurrency(t *testing.T) {
	client := &fakeClient{delay: 20 * time.Millisecond}
	q := New(client, 0)

	q.Add(tmpFiles(t, 9)...)
	q.Wait()

	require.LessOrEqual(t, client.seenMax(), DefaultConcurrency)
	require.Len(t, client.callNames(), 9)
}

func TestQueue_FailureDoesNotHaltOthers(t *testing.T) {
	client := &fakeClient{failNames: map[string]bool{"file-1.txt": true}}
	q := New(client, 2)

	q.Add(tmpFiles(t, 4)...)
	q.Wait()

	var failed, completed int
	for _, task := range q.Tasks() {
		switch task.Status {
		case StatusError:
			failed++
			require.Equal(t, "file-1.txt", task.Name)
			require.Equal(t, "server rejected upload", task.Err)
			require.Nil(t, task.Result)
		case StatusCompleted:
			completed++
		default:
			t.Fatalf("task %s left in state %s", task.Name, task.Status)
		}
	}
	require.Equal(t, 1, failed)
	require.Equal(t, 3, completed)
}

func TestQueue_MissingFileErrors(t *testing.T) {
	client := &fakeClient{}
	q := New(client, 1)

	q.Add(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	q.Wait()

	tasks := q.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, StatusError, tasks[0].Status)
	require.NotEmpty(t, tasks[0].Err)
	// the client was never reached
	require.Empty(t, client.callNames())
}

func TestQueue_ProgressMonotonic(t *testing.T) {
	// out-of-order and out-of-range reports must never move progress backward
	client := &fakeClient{pcts: []int{10, 60, 30, 110, 80}}
	q := New(client, 1)

	q.Add(tmpFiles(t, 1)...)
	q.Wait()

	tasks := q.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, StatusCompleted, tasks[0].Status)
	require.Equal(t, 100, tasks[0].Progress)
}

func TestQueue_AddWhileDraining(t *testing.T) {
	client := &fakeClient{delay: 15 * time.Millisecond}
	q := New(client, 2)

	first := tmpFiles(t, 3)
	second := tmpFiles(t, 3)

	q.Add(first...)
	q.Add(second...)
	q.Wait()

	require.Len(t, client.callNames(), 6)
	require.Len(t, q.Tasks(), 6)
}

func TestQueue_RemovePendingNeverUploads(t *testing.T) {
	client := &fakeClient{gate: make(chan struct{})}
	q := New(client, 1)

	paths := tmpFiles(t, 3)
	ids := q.Add(paths...)

	// wait until the first task occupies the single worker slot
	waitFor(t, func() bool {
		return q.Tasks()[0].Status == StatusUploading
	})

	require.True(t, q.Remove(ids[2]))
	require.Len(t, q.Tasks(), 2)

	close(client.gate)
	q.Wait()

	names := client.callNames()
	require.Len(t, names, 2)
	require.NotContains(t, names, filepath.Base(paths[2]))
}

func TestQueue_RemoveInFlightRefused(t *testing.T) {
	client := &fakeClient{gate: make(chan struct{})}
	q := New(client, 1)

	ids := q.Add(tmpFiles(t, 1)...)
	waitFor(t, func() bool {
		return q.Tasks()[0].Status == StatusUploading
	})

	require.False(t, q.Remove(ids[0]))

	close(client.gate)
	q.Wait()

	tasks := q.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, StatusCompleted, tasks[0].Status)
}

func TestQueue_RemoveUnknownID(t *testing.T) {
	q := New(&fakeClient{}, 1)
	require.False(t, q.Remove("no-such-id"))
}

func TestQueue_ClearCompleted(t *testing.T) {
	client := &fakeClient{failNames: map[string]bool{"file-0.txt": true}}
	q := New(client, 2)

	q.Add(tmpFiles(t, 3)...)
	q.Wait()

	q.ClearCompleted()

	tasks := q.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, StatusError, tasks[0].Status)
}
