// Package watch reports changed data files of a directory so they can be
// loaded again.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'refdb.watch'
func tracer() tracing.Trace {
	return tracing.Select("refdb.watch")
}

// Watcher calls a handler for every created or written file of a
// directory whose base name matches a pattern. The handler always runs on
// the goroutine calling Run, so it may use a store without locking as long
// as nothing else touches the store meanwhile.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	pattern string
	handle  func(path string)
}

// New starts watching dir. Events are delivered once Run is called.
func New(dir, pattern string, handle func(path string)) (*Watcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("watch: invalid pattern %q", pattern)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch: cannot watch %q: %w", dir, err)
	}
	return &Watcher{
		watcher: fw,
		dir:     dir,
		pattern: pattern,
		handle:  handle,
	}, nil
}

// Run delivers events until ctx is done or the watcher is closed.
// It returns ctx.Err() after cancellation and nil after Close.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				tracer().Infof("reloading %s (%s)", event.Name, event.Op)
				w.handle(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				tracer().Errorf("watch: events lost in %s: %v", w.dir, err)
				continue
			}
			tracer().Errorf("watch: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	matched, err := doublestar.Match(w.pattern, filepath.Base(event.Name))
	return err == nil && matched
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
