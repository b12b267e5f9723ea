package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"
)

// WatchDebounce is how long Watch waits for writes to settle before
// converting the changed files.
var WatchDebounce = 200 * time.Millisecond

// Watch converts paths once, then again whenever a file under them changes,
// until ctx is done. Every batch of reports is passed to report.
func (r *Runner) Watch(ctx context.Context, paths []string, report func([]diagnostics.FileReport)) error {
	if len(paths) == 0 {
		paths = []string{r.opts.Root}
	}
	reports, err := r.Run(ctx, paths)
	if err != nil {
		return err
	}
	report(reports)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	for _, p := range paths {
		if err := r.watchTree(w, p); err != nil {
			return err
		}
	}

	pending := map[string]bool{}
	timer := time.NewTimer(WatchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := r.watchTree(w, ev.Name); err != nil {
						r.logger.Warn("watching new directory failed", "path", ev.Name, "err", err)
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if _, err := os.Stat(ev.Name); err != nil {
				continue
			}
			if r.isOutput(ev.Name) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(WatchDebounce)
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			reports, err := r.Run(ctx, changed)
			if err != nil {
				r.logger.Warn("conversion failed", "err", err)
				continue
			}
			if len(reports) > 0 {
				report(reports)
			}
		}
	}
}

func (r *Runner) watchTree(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

// isOutput reports whether file lies in a converted location, so writes made
// by the runner itself do not trigger another conversion.
func (r *Runner) isOutput(file string) bool {
	if strings.HasPrefix(filepath.Base(file), ".cy2pw-") {
		return true
	}
	rel, err := relativeTo(r.opts.OutDir, file)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, rule := range r.renamer.dirs {
		if to := rule[1]; to != "" && (rel == to || strings.HasPrefix(rel, to+"/")) {
			return true
		}
	}
	return false
}
