// bucketctl uploads local files to a storage bucket server through the
// bounded-concurrency upload queue, printing per-file progress.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/localbucket/bucketd/internal/client/api"
	"github.com/localbucket/bucketd/internal/client/uploader"
)

func main() {
	serverURL := flag.String("server", "http://localhost:3001", "storage bucket server URL")
	concurrency := flag.Int("concurrency", uploader.DefaultConcurrency, "maximum simultaneous uploads")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: bucketctl [-server URL] [-concurrency N] FILE...")
		os.Exit(2)
	}

	queue := uploader.New(api.New(*serverURL), *concurrency)
	queue.Add(paths...)

	done := make(chan struct{})
	go func() {
		queue.Wait()
		close(done)
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			fmt.Printf("\r%s", progressLine(queue.Tasks()))
		case <-done:
			break loop
		}
	}

	fmt.Printf("\r%s\n", progressLine(queue.Tasks()))

	failed := 0
	for _, t := range queue.Tasks() {
		switch t.Status {
		case uploader.StatusCompleted:
			fmt.Printf("  %s  id=%d size=%d hash=%s\n", t.Name, t.Result.ID, t.Result.Size, t.Result.ContentHash)
		case uploader.StatusError:
			failed++
			fmt.Printf("  %s  failed: %s\n", t.Name, t.Err)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func progressLine(tasks []uploader.Task) string {
	var completed, uploading, errored int
	for _, t := range tasks {
		switch t.Status {
		case uploader.StatusCompleted:
			completed++
		case uploader.StatusUploading:
			uploading++
		case uploader.StatusError:
			errored++
		}
	}
	return fmt.Sprintf("uploaded %d/%d (%d active, %d failed)", completed, len(tasks), uploading, errored)
}
