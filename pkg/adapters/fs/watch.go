package fs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/shelter/pkg/core"
)

const watchStopTimeout = 2 * time.Second

// Watch emits an event each time a table whose name matches pattern is
// created, rewritten or removed, until ctx ends. An empty pattern matches
// every table. The channel is closed once the watcher has stopped.
//
// Rewrites replace the file by rename, so the watcher tracks which tables
// exist to tell a new table from a rewritten one.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: invalid pattern %q", core.ErrValidation, pattern)
	}

	events := make(chan core.Event)
	w := newWatchWorker(s, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), watchStopTimeout)
		defer cancel()
		err := w.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(s.reportWatchError))

	return events, nil
}

func (s *Store) reportWatchError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.logger.Error("watcher failed", "error", err)
}

type watchWorker struct {
	*worker.BaseWorker
	store   *Store
	pattern string
	events  chan<- core.Event
	watcher *fsnotify.Watcher
	known   map[string]bool
	cancel  context.CancelFunc
}

func newWatchWorker(store *Store, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("table-watcher"),
		store:      store,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	tables, err := w.store.Tables(ctx, "")
	if err != nil {
		return err
	}
	w.known = make(map[string]bool, len(tables))
	for _, t := range tables {
		w.known[t] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: failed to create watcher: %v", core.ErrIO, err)
	}
	if err := watcher.Add(w.store.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("%w: failed to watch %s: %v", core.ErrIO, w.store.Path, err)
	}

	w.watcher = watcher
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// eventFor maps a filesystem event to a table event. ok is false for files
// that are not tables (lock files, temp files) or tables outside the pattern.
func (w *watchWorker) eventFor(event fsnotify.Event) (core.Event, bool) {
	table, ok := tableName(event.Name)
	if !ok {
		return core.Event{}, false
	}
	if !matchesPattern(w.pattern, table) {
		return core.Event{}, false
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		eType = core.EventCreate
		if w.known[table] {
			eType = core.EventModify
		}
		w.known[table] = true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.known[table] {
			return core.Event{}, false
		}
		delete(w.known, table)
		eType = core.EventDelete
	default:
		return core.Event{}, false
	}

	return core.Event{Type: eType, Table: table, Timestamp: time.Now()}, true
}

func (w *watchWorker) send(ctx context.Context, e core.Event) {
	defer func() {
		// The channel may be closed while shutting down.
		_ = recover()
	}()
	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.store.logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if e, ok := w.eventFor(event); ok {
				w.send(ctx, e)
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("fsnotify error", "error", wErr)
			if w.store.config.ErrorHandler != nil {
				w.store.config.ErrorHandler(wErr)
			}
		}
	}
}

// matchesPattern reports whether a table name passes a watch or list filter.
func matchesPattern(pattern, table string) bool {
	if pattern == "" {
		return true
	}
	match, _ := doublestar.Match(pattern, table)
	return match
}
