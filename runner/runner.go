// Package runner walks a Cypress project, converts every spec, page object
// and support file in parallel and writes the Playwright output.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/heshanpadmasiri/cy2pw/config"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
	"github.com/heshanpadmasiri/cy2pw/ledger"
)

// Options controls a run.
type Options struct {
	// Root is the project directory; input and target paths are relative to it.
	Root string
	// OutDir receives the converted tree, Root when empty.
	OutDir string
	DryRun bool
	// Force converts files the ledger reports as unchanged.
	Force  bool
	Ledger *ledger.Ledger
	Logger *slog.Logger
}

// Job is one file to convert.
type Job struct {
	// Path and Target are project relative, slash separated.
	Path   string
	Target string
	Kind   Kind
	source string
}

// Runner converts files with a bounded worker pool.
type Runner struct {
	cfg     config.Config
	opts    Options
	conv    *Converter
	renamer Renamer
	logger  *slog.Logger
}

var skippedDirs = map[string]bool{"node_modules": true, ".git": true, ".cy2pw": true}

// New creates a runner.
func New(cfg config.Config, opts Options) *Runner {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.OutDir == "" {
		opts.OutDir = opts.Root
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		cfg:     cfg,
		opts:    opts,
		conv:    NewConverter(cfg),
		renamer: NewRenamer(cfg),
		logger:  logger,
	}
}

// Discover expands paths into jobs ordered by path. Directories are walked
// recursively; files that are not converted are left out.
func (r *Runner) Discover(paths []string) ([]Job, error) {
	if len(paths) == 0 {
		paths = []string{r.opts.Root}
	}
	seen := map[string]bool{}
	var jobs []Job
	add := func(file string) error {
		rel, err := relativeTo(r.opts.Root, file)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", file, err)
		}
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			return nil
		}
		seen[rel] = true
		src, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		kind, ok := Classify(rel, src, r.cfg.Namespace)
		if !ok {
			return nil
		}
		job := Job{Path: rel, Kind: kind, source: file}
		job.Target = filepath.ToSlash(r.renamer.Directory(rel))
		if kind == KindSpec {
			job.Target = filepath.ToSlash(r.renamer.Target(rel))
		}
		if samePath(file, r.outputPath(job)) {
			r.logger.Debug("skipping file that would overwrite itself", "path", rel)
			return nil
		}
		jobs = append(jobs, job)
		return nil
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(file string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if file != p && skippedDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			return add(file)
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	return jobs, nil
}

// relativeTo expresses file relative to root; either may be absolute.
func relativeTo(root, file string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absRoot, absFile)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func (r *Runner) outputPath(job Job) string {
	return filepath.Join(r.opts.OutDir, filepath.FromSlash(job.Target))
}

// Run converts paths and returns one report per converted file, in path
// order. Per-file failures are reported, not returned.
func (r *Runner) Run(ctx context.Context, paths []string) ([]diagnostics.FileReport, error) {
	jobs, err := r.Discover(paths)
	if err != nil {
		return nil, err
	}
	var runID int64
	if r.opts.Ledger != nil {
		if runID, err = r.opts.Ledger.BeginRun(ctx); err != nil {
			return nil, err
		}
	}

	workers := r.cfg.Jobs
	if workers < 1 {
		workers = 1
	}
	reports := make([]diagnostics.FileReport, len(jobs))
	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				reports[i] = r.process(ctx, runID, jobs[i])
			}
		}()
	}
	for i := range jobs {
		work <- i
	}
	close(work)
	wg.Wait()
	return reports, nil
}

func (r *Runner) process(ctx context.Context, runID int64, job Job) diagnostics.FileReport {
	logger := r.logger.With("path", job.Path, "kind", job.Kind.String())
	if err := ctx.Err(); err != nil {
		return diagnostics.NewFileReport(job.Path, job.Target, "", nil, fmt.Errorf("%w: %v", diagnostics.ErrCanceled, err))
	}
	src, err := os.ReadFile(job.source)
	if err != nil {
		report := diagnostics.NewFileReport(job.Path, job.Target, "", nil, fmt.Errorf("reading %s: %w", job.Path, err))
		r.record(ctx, logger, runID, report, "")
		return report
	}
	hash := ledger.Hash(src)
	if r.opts.Ledger != nil && !r.opts.Force {
		unchanged, err := r.opts.Ledger.Unchanged(ctx, job.Path, hash)
		if err != nil {
			logger.Warn("ledger lookup failed", "err", err)
		}
		if unchanged {
			report := diagnostics.FileReport{Path: job.Path, Target: job.Target, Status: diagnostics.StatusSkipped}
			r.record(ctx, logger, runID, report, hash)
			logger.Debug("unchanged since last run")
			return report
		}
	}

	res, err := r.convert(ctx, src, job)
	if err == nil && !r.opts.DryRun {
		err = writeAtomic(ctx, r.outputPath(job), []byte(res.Code))
	}
	report := diagnostics.NewFileReport(job.Path, job.Target, res.Code, res.Warnings, err)
	r.record(ctx, logger, runID, report, hash)
	logger.Debug("converted", "status", string(report.Status), "warnings", len(report.Warnings))
	return report
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, runID int64, report diagnostics.FileReport, hash string) {
	if r.opts.Ledger == nil || r.opts.DryRun {
		return
	}
	entry := ledger.EntryFor(report, hash)
	entry.RunID = runID
	if err := r.opts.Ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("recording result failed", "err", err)
	}
}

// convert runs the conversion under the per-file timeout. A conversion that
// does not finish in time is abandoned and nothing is written.
func (r *Runner) convert(ctx context.Context, src []byte, job Job) (Result, error) {
	if d := r.cfg.TimeoutDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("converting %s: internal error: %v", job.Path, p)}
			}
		}()
		res, err := r.conv.Convert(src, job.Path, job.Target, job.Kind)
		done <- outcome{res: res, err: err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, fmt.Errorf("%w: %v", diagnostics.ErrCanceled, ctx.Err())
	}
}

// writeAtomic writes data to a temporary file next to target and renames it
// into place, so an interrupted run never leaves a partial file.
func writeAtomic(ctx context.Context, target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".cy2pw-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", diagnostics.ErrCanceled, err)
	}
	if err := os.Rename(name, target); err != nil {
		return fmt.Errorf("renaming into %s: %w", target, err)
	}
	return nil
}

// IsCanceled reports whether a report failed because the run was canceled or
// the file timed out.
func IsCanceled(report diagnostics.FileReport) bool {
	return errors.Is(report.Err, diagnostics.ErrCanceled)
}
