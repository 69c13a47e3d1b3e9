package generate

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/logger"
)

// GenerateCallback is called after each debounced regeneration
type GenerateCallback func(*Summary)

// Watcher regenerates input files when they change on disk
type Watcher struct {
	gen            *Generator
	watcher        *fsnotify.Watcher
	log            *zap.SugaredLogger
	debouncePeriod time.Duration

	mu            sync.Mutex
	pending       map[string]bool
	debounceTimer *time.Timer
	callbacks     []GenerateCallback
	running       bool
	stopped       bool
	inflight      sync.WaitGroup
}

// NewWatcher watches dirs (not recursively) for changes to input files
func NewWatcher(gen *Generator, dirs []string, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	return &Watcher{
		gen:            gen,
		watcher:        fw,
		log:            log,
		debouncePeriod: debounce,
		pending:        make(map[string]bool),
	}, nil
}

// OnGenerate registers a callback invoked with the summary of every run
func (w *Watcher) OnGenerate(cb GenerateCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Run processes file system events until ctx is cancelled or the watcher is
// closed
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.inflight.Wait()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.log.Debugw("Watcher detected change",
				logger.FieldFile, event.Name,
				logger.FieldOperation, event.Op.String())
			w.schedule(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

// relevant filters out outputs, temporary files and files without directives.
// Skipping outputs keeps our own writes from triggering another run.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".go") || strings.HasPrefix(base, ".") {
		return false
	}
	ok, err := isInput(path, w.gen.opts.OutputSuffix)
	if err != nil {
		w.log.Debugw("Ignoring unreadable file", logger.FieldFile, path, logger.FieldError, err)
		return false
	}
	return ok
}

// schedule debounces bursts of changes into one run
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	w.pending[abs] = true

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		w.flush(ctx)
	})
}

// flush regenerates the pending files. Changes arriving during a run stay
// pending and are flushed when it finishes, so runs never overlap.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if w.running || w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	files := make([]string, 0, len(w.pending))
	for f := range w.pending {
		files = append(files, f)
	}
	w.pending = make(map[string]bool)
	callbacks := make([]GenerateCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.running = true
	w.inflight.Add(1)
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		again := len(w.pending) > 0
		w.mu.Unlock()
		w.inflight.Done()
		if again && ctx.Err() == nil {
			w.flush(ctx)
		}
	}()

	sort.Strings(files)

	summary, err := w.gen.Run(ctx, files)
	if errors.Is(err, context.Canceled) {
		w.log.Debugw("Regeneration cancelled", logger.FieldCount, len(files))
		return
	}
	if err != nil {
		w.log.Errorw("Regeneration failed", logger.FieldError, err)
		return
	}
	for _, f := range summary.Files {
		if f.Err != nil {
			w.log.Errorw("Regeneration failed",
				logger.FieldFile, f.Input,
				logger.FieldError, f.Err)
		}
	}
	for _, cb := range callbacks {
		cb(summary)
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}
