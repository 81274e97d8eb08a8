package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last file change
// before reloading.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// OnReload is called after every reload triggered by a change, with
	// the reload's report and error.
	OnReload func(*Report, error)
}

// Watch reloads the catalog whenever a metadata file below dir is created,
// written, renamed or removed. It blocks until ctx is cancelled and returns
// nil in that case.
func (c *Catalog) Watch(ctx context.Context, dir string, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: creating watcher: %w", err)
	}
	defer watcher.Close()

	tree := &watchedTree{w: watcher, dirs: make(map[string]bool)}
	if err := tree.add(dir); err != nil {
		return fmt.Errorf("catalog: watching %s: %w", dir, err)
	}

	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !tree.update(ev) && !relevant(ev) {
				continue
			}
			timer.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("catalog: watcher: %w", err)

		case <-timer.C:
			report, err := c.Reload(ctx)
			if opts.OnReload != nil {
				opts.OnReload(report, err)
			}
		}
	}
}

// relevant reports whether a file event can change the catalog.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return IsMetadataFile(filepath.ToSlash(ev.Name))
}

// watchedTree tracks the directories registered with the watcher so that
// events on the directories themselves can be recognized.
type watchedTree struct {
	w    *fsnotify.Watcher
	dirs map[string]bool
}

// add watches root and every non-hidden directory below it. A root that is
// not a directory is ignored.
func (t *watchedTree) add(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := t.w.Add(p); err != nil {
			return err
		}
		t.dirs[filepath.Clean(p)] = true
		return nil
	})
}

// update follows directories created, removed or renamed below the tree and
// reports whether ev concerned such a directory.
func (t *watchedTree) update(ev fsnotify.Event) bool {
	name := filepath.Clean(ev.Name)
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if !t.dirs[name] {
			return false
		}
		prefix := name + string(filepath.Separator)
		for d := range t.dirs {
			if d == name || strings.HasPrefix(d, prefix) {
				delete(t.dirs, d)
			}
		}
		return true
	}

	if ev.Has(fsnotify.Create) {
		info, err := os.Stat(name)
		if err != nil || !info.IsDir() {
			return false
		}
		_ = t.add(name)
		return true
	}
	return false
}
