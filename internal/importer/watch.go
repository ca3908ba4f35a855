package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DropWatcher watches the import directory and feeds settled .json files to
// the importer. fsnotify reports every write while a file is still being
// copied in, so each file gets a settle timer that restarts until its size
// and mtime stop moving.
type DropWatcher struct {
	dir      string
	importer *Importer
	logger   *slog.Logger
	settle   time.Duration

	watcher *fsnotify.Watcher

	pending map[string]*pendingFile
	mu      sync.Mutex // guards pending

	// importMu serializes batch runs so two files dropped together do not
	// interleave their catalog writes.
	importMu sync.Mutex

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// pendingFile tracks a drop file that may still be changing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// NewDropWatcher creates a watcher over the given directory. The directory
// must exist. A zero settle duration gets a one second default.
func NewDropWatcher(dir string, imp *Importer, settle time.Duration, logger *slog.Logger) (*DropWatcher, error) {
	if settle <= 0 {
		settle = time.Second
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch import directory: %w", err)
	}

	return &DropWatcher{
		dir:      dir,
		importer: imp,
		logger:   logger,
		settle:   settle,
		watcher:  watcher,
		pending:  make(map[string]*pendingFile),
		done:     make(chan struct{}),
	}, nil
}

// Start sweeps files that were dropped while the server was down, then
// blocks processing events until the context is cancelled.
func (dw *DropWatcher) Start(ctx context.Context) error {
	dw.sweep(ctx)

	dw.wg.Add(1)
	go dw.processEvents(ctx)

	<-ctx.Done()
	return nil
}

// sweep imports every batch file already sitting in the directory.
func (dw *DropWatcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(dw.dir)
	if err != nil {
		dw.logger.Error("failed to read import directory", "dir", dw.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isBatchFile(entry.Name()) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		dw.runImport(ctx, filepath.Join(dw.dir, entry.Name()))
	}
}

// processEvents consumes fsnotify events until shutdown.
func (dw *DropWatcher) processEvents(ctx context.Context) {
	defer dw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.done:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.handleEvent(event)
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn("import watcher error", "error", err)
		}
	}
}

// handleEvent reacts to a single fsnotify event. Only .json files matter;
// renames out of the suffix (our own .imported/.failed moves included) just
// cancel any pending timer.
func (dw *DropWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if !isBatchFile(path) {
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		dw.cancelPending(path)
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		dw.startSettling(path)
	}
}

// startSettling begins or restarts the settle countdown for a file.
func (dw *DropWatcher) startSettling(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if pending, exists := dw.pending[path]; exists {
		pending.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(dw.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	pending := &pendingFile{
		size:    info.Size(),
		modTime: info.ModTime(),
	}
	pending.timer = time.AfterFunc(dw.settle, func() {
		dw.checkSettled(path)
	})

	dw.pending[path] = pending
}

// checkSettled decides whether a file has stopped changing. A file still
// growing restarts its timer; a settled one is handed to the importer.
func (dw *DropWatcher) checkSettled(path string) {
	dw.mu.Lock()

	pending, exists := dw.pending[path]
	if !exists {
		dw.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// File disappeared before it settled
		delete(dw.pending, path)
		dw.mu.Unlock()
		return
	}

	if info.Size() != pending.size || info.ModTime() != pending.modTime {
		// Another write arrived, push the deadline out
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(dw.settle, func() {
			dw.checkSettled(path)
		})
		dw.mu.Unlock()
		return
	}

	delete(dw.pending, path)
	dw.mu.Unlock()

	dw.runImport(context.Background(), path)
}

// cancelPending drops the settle timer for a file.
func (dw *DropWatcher) cancelPending(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if pending, exists := dw.pending[path]; exists {
		pending.timer.Stop()
		delete(dw.pending, path)
	}
}

// runImport processes one settled file. ImportFile logs its own summary and
// renames the file; only the error needs handling here.
func (dw *DropWatcher) runImport(ctx context.Context, path string) {
	dw.importMu.Lock()
	defer dw.importMu.Unlock()

	// A timer may fire between shutdown starting and its Stop call landing
	select {
	case <-dw.done:
		return
	default:
	}

	if _, err := dw.importer.ImportFile(ctx, path); err != nil {
		dw.logger.Error("import failed", "file", path, "error", err)
	}
}

// Stop stops the watcher and waits for in-flight work.
func (dw *DropWatcher) Stop() error {
	dw.stopOnce.Do(func() {
		close(dw.done)
	})

	dw.mu.Lock()
	for path, pending := range dw.pending {
		pending.timer.Stop()
		delete(dw.pending, path)
	}
	dw.mu.Unlock()

	err := dw.watcher.Close()
	dw.wg.Wait()

	// Wait out a batch that was already past its settle check
	dw.importMu.Lock()
	dw.importMu.Unlock() //nolint:staticcheck // empty critical section is the wait

	return err
}

// isBatchFile reports whether a path looks like a drop file. The processed
// suffixes shift the extension, so renamed files fall out here.
func isBatchFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
