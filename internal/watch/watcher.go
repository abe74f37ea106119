// Package watch runs the ingestion pipeline on WRAP files dropped into an
// inbox directory. Ingested files move to processed/, rejected ones to
// failed/, so the inbox only ever holds work in flight.
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/studyops/brain/internal/ingest"
)

// Ingestor is the slice of the pipeline the watcher drives.
type Ingestor interface {
	Ingest(ctx context.Context, raw string) (*ingest.Result, error)
}

// InboxWatcher watches the inbox directory and ingests Markdown files as
// they appear.
type InboxWatcher struct {
	inboxDir     string
	processedDir string
	failedDir    string
	ingestor     Ingestor
	watcher      *fsnotify.Watcher
	done         chan struct{}

	// settleDelay is how long a file must stop growing before it is read.
	settleDelay time.Duration
}

// NewInboxWatcher creates a watcher over inboxDir that moves finished files
// into processedDir or failedDir.
func NewInboxWatcher(inboxDir, processedDir, failedDir string, ingestor Ingestor) *InboxWatcher {
	return &InboxWatcher{
		inboxDir:     inboxDir,
		processedDir: processedDir,
		failedDir:    failedDir,
		ingestor:     ingestor,
		done:         make(chan struct{}),
		settleDelay:  500 * time.Millisecond,
	}
}

// Start begins watching. Files already sitting in the inbox are drained
// first, then new ones are picked up as they arrive. Call Stop to clean up.
func (w *InboxWatcher) Start(ctx context.Context) error {
	for _, dir := range []string{w.inboxDir, w.processedDir, w.failedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	w.drainExisting(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.inboxDir); err != nil {
		_ = fsw.Close()
		return err
	}
	w.watcher = fsw

	go w.loop(ctx)
	log.Printf("watch: watching %s for WRAP documents", w.inboxDir)
	return nil
}

// Stop shuts down the watcher.
func (w *InboxWatcher) Stop() {
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
	<-w.done
}

func (w *InboxWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 && isWrapFile(evt.Name) {
				w.processFile(ctx, evt.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

func (w *InboxWatcher) drainExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && isWrapFile(entry.Name()) {
			w.processFile(ctx, filepath.Join(w.inboxDir, entry.Name()))
		}
	}
}

// processFile waits for the file to stop growing, ingests it, and moves it
// out of the inbox.
func (w *InboxWatcher) processFile(ctx context.Context, path string) {
	if !w.waitSettled(ctx, path) {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Already moved or deleted; another event will follow if not.
		return
	}

	name := filepath.Base(path)
	if strings.TrimSpace(string(data)) == "" {
		log.Printf("watch: skipping empty file %s", name)
		w.move(path, w.failedDir)
		return
	}

	result, err := w.ingestor.Ingest(ctx, string(data))
	if err != nil {
		log.Printf("watch: %s rejected: %v", name, err)
		w.move(path, w.failedDir)
		return
	}

	log.Printf("watch: %s ingested as %s (%d cards, note %s)",
		name, result.SessionID, result.Cards.Written, result.NoteUpdate)
	w.move(path, w.processedDir)
}

// waitSettled polls the file size until two consecutive reads agree, so a
// file still being written is not ingested half-way.
func (w *InboxWatcher) waitSettled(ctx context.Context, path string) bool {
	var lastSize int64 = -1
	for i := 0; i < 20; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()

		select {
		case <-time.After(w.settleDelay):
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (w *InboxWatcher) move(path, destDir string) {
	dest := filepath.Join(destDir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		dest = filepath.Join(destDir,
			time.Now().Format("20060102_150405_")+filepath.Base(path))
	}
	if err := os.Rename(path, dest); err != nil {
		log.Printf("watch: failed to move %s: %v", filepath.Base(path), err)
	}
}

func isWrapFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}
