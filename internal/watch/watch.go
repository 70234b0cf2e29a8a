// Package watch reports batches of changed Java sources under a directory
// tree.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/phobologic/jrewrite/internal/discover"
	"github.com/phobologic/jrewrite/internal/lang"
)

// DefaultDelay is how long a batch stays open after the last event.
const DefaultDelay = 200 * time.Millisecond

// Watcher collects file system events below Root. Directories that
// discover.SkipDir rejects are never watched.
type Watcher struct {
	Root  string
	Delay time.Duration
	// Match selects the files that are reported. It receives the path
	// relative to Root in slash form. The default accepts .java files.
	Match  func(rel string) bool
	Logger logrus.FieldLogger

	fw *fsnotify.Watcher
}

// New starts watching root and every directory below it. Events that occur
// between New and Run are not lost.
func New(root string, logger logrus.FieldLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	w := &Watcher{Root: root, Delay: DefaultDelay, Logger: logger, fw: fw}
	if err := w.addTree(root, nil); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fw.Close() }

// Run calls fn with the sorted relative paths of each batch of changed
// files until ctx is done or fn fails. A cancelled context is not an error.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, paths []string) error) error {
	pending := make(map[string]struct{})
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev, pending)
			if len(pending) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Delay)
			} else {
				timer.Reset(w.Delay)
			}
			fire = timer.C
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.WithError(err).Warn("watch error")
		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)
			if err := fn(ctx, paths); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event, pending map[string]struct{}) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if discover.SkipDir(filepath.Base(ev.Name)) {
				return
			}
			// Files created before the watch was added would be missed.
			if err := w.addTree(ev.Name, pending); err != nil {
				w.Logger.WithError(err).WithField("dir", ev.Name).Warn("cannot watch directory")
			}
			return
		}
	}
	if rel, ok := w.relevant(ev.Name); ok {
		pending[rel] = struct{}{}
	}
}

func (w *Watcher) relevant(path string) (string, bool) {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.Match != nil {
		return rel, w.Match(rel)
	}
	return rel, lang.IsSource(rel)
}

// addTree watches dir and its subdirectories. When pending is non-nil the
// matching files found on the way are queued.
func (w *Watcher) addTree(dir string, pending map[string]struct{}) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			if pending != nil {
				if rel, ok := w.relevant(path); ok {
					pending[rel] = struct{}{}
				}
			}
			return nil
		}
		if path != w.Root && discover.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		w.Logger.WithField("dir", path).Debug("watching")
		return w.fw.Add(path)
	})
}
