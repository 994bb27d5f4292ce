package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/metrics"
)

const (
	doneDir   = "done"
	failedDir = "failed"
)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Dir       string
	Processor *Processor
	Workers   int
	QueueSize int
	// Debounce coalesces Create+Write bursts on the same file. Default 500ms.
	Debounce time.Duration
	Log      zerolog.Logger
}

// WatcherStats is a snapshot of watcher counters.
type WatcherStats struct {
	Pending   int   `json:"pending"`
	InFlight  int   `json:"in_flight"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Watcher monitors an inbox directory for transcript and audio files and
// runs each one through the Processor. Finished inputs are moved into
// done/ or failed/ under the inbox.
type Watcher struct {
	dir       string
	processor *Processor
	workers   int
	debounce  time.Duration
	log       zerolog.Logger

	fsw    *fsnotify.Watcher
	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	loopWG sync.WaitGroup

	// Debounce: coalesce rapid Create+Write events on the same file.
	mu             sync.Mutex
	debounceTimers map[string]*time.Timer
	queued         map[string]bool
	closed         bool

	inFlight  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

func NewWatcher(opts WatcherOptions) *Watcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:            opts.Dir,
		processor:      opts.Processor,
		workers:        opts.Workers,
		debounce:       opts.Debounce,
		log:            opts.Log.With().Str("component", "watcher").Logger(),
		jobs:           make(chan string, opts.QueueSize),
		debounceTimers: make(map[string]*time.Timer),
		queued:         make(map[string]bool),
	}
}

// Start creates the inbox layout, begins watching, launches the workers, and
// queues any files already waiting in the inbox.
func (w *Watcher) Start(ctx context.Context) error {
	for _, d := range []string{w.dir, filepath.Join(w.dir, doneDir), filepath.Join(w.dir, failedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
	w.loopWG.Add(1)
	go w.watchLoop()

	backlog := w.scan()
	w.log.Info().
		Str("watch_dir", w.dir).
		Int("workers", w.workers).
		Int("backlog", backlog).
		Msg("file watcher started")
	return nil
}

// Stop stops watching and cancels in-flight work. Unfinished and still-queued
// files stay in the inbox for the next start.
func (w *Watcher) Stop() {
	if w.fsw != nil {
		w.fsw.Close()
	}
	w.loopWG.Wait()

	w.mu.Lock()
	w.closed = true
	for path, t := range w.debounceTimers {
		t.Stop()
		delete(w.debounceTimers, path)
	}
	close(w.jobs)
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	s := w.Stats()
	w.log.Info().
		Int64("processed", s.Processed).
		Int64("failed", s.Failed).
		Msg("file watcher stopped")
}

// Enqueue adds a file to the work queue. Returns false if the queue is full,
// the file is already queued, or the watcher is stopping.
func (w *Watcher) Enqueue(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.queued[path] {
		return false
	}
	select {
	case w.jobs <- path:
		w.queued[path] = true
		return true
	default:
		return false
	}
}

// Stats returns current counters.
func (w *Watcher) Stats() WatcherStats {
	return WatcherStats{
		Pending:   w.PendingCount(),
		InFlight:  w.InFlightCount(),
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
	}
}

// PendingCount returns the number of files waiting for a worker.
func (w *Watcher) PendingCount() int { return len(w.jobs) }

// InFlightCount returns the number of files being processed.
func (w *Watcher) InFlightCount() int { return int(w.inFlight.Load()) }

// watchLoop is the main event loop that processes fsnotify events.
func (w *Watcher) watchLoop() {
	defer w.loopWG.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.wanted(event.Name) {
				continue
			}
			w.scheduleProcess(event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// wanted filters events down to supported regular files directly in the inbox.
func (w *Watcher) wanted(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !IsSupported(path) {
		return false
	}
	if filepath.Dir(path) != filepath.Clean(w.dir) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// scheduleProcess debounces file processing. This coalesces rapid
// Create+Write events and lets the writer finish before the file is read.
func (w *Watcher) scheduleProcess(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(w.debounce)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceTimers, path)
		w.mu.Unlock()

		w.submit(path)
	})
}

func (w *Watcher) submit(path string) {
	if w.Enqueue(path) {
		return
	}
	w.mu.Lock()
	dup, closed := w.queued[path], w.closed
	w.mu.Unlock()
	if dup || closed {
		return
	}
	metrics.IngestFilesTotal.WithLabelValues("dropped").Inc()
	w.log.Warn().Str("path", path).Msg("work queue full, file left in inbox")
}

// scan queues files already in the inbox, oldest first.
func (w *Watcher) scan() int {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn().Err(err).Msg("failed to scan inbox")
		return 0
	}
	type fileEntry struct {
		path    string
		modTime time.Time
	}
	var files []fileEntry
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.IsDir() || !w.wanted(path) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{path, info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	n := 0
	for _, f := range files {
		if w.Enqueue(f.path) {
			n++
		}
	}
	return n
}

func (w *Watcher) worker(id int) {
	defer w.wg.Done()
	log := w.log.With().Int("worker", id).Logger()

	for path := range w.jobs {
		if w.ctx.Err() != nil {
			continue
		}
		w.process(log, path)
	}
}

func (w *Watcher) process(log zerolog.Logger, path string) {
	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	defer func() {
		w.mu.Lock()
		delete(w.queued, path)
		w.mu.Unlock()
	}()

	out, err := w.processor.Process(w.ctx, Job{Path: path})
	switch {
	case err != nil && w.ctx.Err() != nil:
		// Shutting down; leave the file for the next start.
		log.Info().Str("path", path).Msg("processing interrupted by shutdown")
		return
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("file vanished before processing")
		return
	case err != nil:
		w.failed.Add(1)
		metrics.IngestFilesTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("path", path).Msg("failed to process file")
		w.move(log, path, failedDir)
	default:
		w.processed.Add(1)
		metrics.IngestFilesTotal.WithLabelValues("processed").Inc()
		log.Info().
			Str("path", path).
			Str("source", string(out.Result.Source)).
			Int("chapters", len(out.Result.Chapters)).
			Msg("file processed")
		w.move(log, path, doneDir)
	}
}

func (w *Watcher) move(log zerolog.Logger, path, sub string) {
	dst := filepath.Join(w.dir, sub, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		log.Warn().Err(err).Str("path", path).Str("dest", dst).Msg("failed to move processed file")
	}
}
