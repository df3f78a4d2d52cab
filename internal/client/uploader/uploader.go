// Package uploader schedules client-side file uploads: a FIFO queue of
// tasks drained by a bounded worker pool, with per-task progress and
// status tracking. Task state is ephemeral; nothing survives a restart.
package uploader

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/localbucket/bucketd/internal/model"
)

// Status is the task lifecycle state. Terminal states are final: a task in
// StatusError or StatusCompleted is only ever removed, never retried.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Task tracks one file's transfer lifecycle.
type Task struct {
	ID       string
	Path     string
	Name     string
	Progress int // 0-100, monotonically increasing
	Status   Status
	Err      string
	Result   *model.File

	removed bool
}

// Client uploads one stream to the server. *api.Client satisfies this.
type Client interface {
	UploadFile(ctx context.Context, name, mimeType string, r io.Reader, size int64, progress func(int)) (*model.File, error)
}

const DefaultConcurrency = 3

// Queue dispatches pending tasks with a hard concurrency ceiling. Adding
// files starts the dispatcher if it is idle; it drains the queue and stops,
// consuming nothing while idle.
type Queue struct {
	client      Client
	concurrency int

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []*Task // everything the caller can see, in add order
	pending []*Task // FIFO dispatch queue
	active  int
	running bool

	sem chan struct{}
}

func New(client Client, concurrency int) *Queue {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	q := &Queue{
		client:      client,
		concurrency: concurrency,
		sem:         make(chan struct{}, concurrency),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add enqueues local files for upload and returns the new task ids. The
// dispatcher is started if it is not already draining.
func (q *Queue) Add(paths ...string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, 0, len(paths))
	for _, path := range paths {
		t := &Task{
			ID:     uuid.NewString(),
			Path:   path,
			Name:   filepath.Base(path),
			Status: StatusPending,
		}
		q.tasks = append(q.tasks, t)
		q.pending = append(q.pending, t)
		ids = append(ids, t.ID)
	}

	if !q.running && len(q.pending) > 0 {
		q.running = true
		go q.drain()
	}
	return ids
}

// drain pulls pending tasks in FIFO order, blocking on the semaphore so
// that no more than `concurrency` uploads run at once. It exits when the
// queue is empty.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		var t *Task
		for len(q.pending) > 0 {
			head := q.pending[0]
			q.pending = q.pending[1:]
			if !head.removed {
				t = head
				break
			}
		}
		if t == nil {
			q.running = false
			q.cond.Broadcast()
			q.mu.Unlock()
			return
		}
		q.active++
		q.mu.Unlock()

		q.sem <- struct{}{}
		go q.process(t)
	}
}

func (q *Queue) process(t *Task) {
	defer func() {
		<-q.sem
		q.mu.Lock()
		q.active--
		q.cond.Broadcast()
		q.mu.Unlock()
	}()

	q.mu.Lock()
	if t.removed {
		q.mu.Unlock()
		return
	}
	t.Status = StatusUploading
	q.mu.Unlock()

	file, err := q.upload(t)
	if err != nil {
		q.mu.Lock()
		t.Status = StatusError
		t.Err = err.Error()
		q.mu.Unlock()
		return
	}

	q.mu.Lock()
	t.Status = StatusCompleted
	t.Progress = 100
	t.Result = file
	q.mu.Unlock()
}

func (q *Queue) upload(t *Task) (*model.File, error) {
	f, err := os.Open(t.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(t.Name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return q.client.UploadFile(context.Background(), t.Name, mimeType, f, info.Size(), func(pct int) {
		q.setProgress(t, pct)
	})
}

// setProgress keeps the reported percentage monotonic.
func (q *Queue) setProgress(t *Task, pct int) {
	q.mu.Lock()
	if pct > t.Progress && pct <= 100 {
		t.Progress = pct
	}
	q.mu.Unlock()
}

// Tasks returns a snapshot of all tracked tasks in add order.
func (q *Queue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		out = append(out, *t)
	}
	return out
}

// Remove drops a pending or terminal task from the list. An in-flight
// transfer is not aborted; Remove reports false and leaves it alone.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.tasks {
		if t.ID != id {
			continue
		}
		if t.Status == StatusUploading {
			return false
		}
		t.removed = true
		q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
		return true
	}
	return false
}

// ClearCompleted drops every completed task from the list.
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.Status != StatusCompleted {
			kept = append(kept, t)
		}
	}
	q.tasks = kept
}

// Wait blocks until the queue is drained and all workers have finished.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.running || q.active > 0 {
		q.cond.Wait()
	}
}
