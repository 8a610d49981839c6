package scaffold

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentx-labs/groundwork/internal/catalog"
	"github.com/agentx-labs/groundwork/internal/facts"
	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/merge"
	"github.com/agentx-labs/groundwork/internal/platform"
)

// FileError ties a per-file failure to its destination path.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

// FilePath returns the destination path the error concerns.
func (e *FileError) FilePath() string { return e.Path }

// FileResult is the outcome for one destination file.
type FileResult struct {
	Path       string
	Template   string
	Action     merge.Action
	Unresolved []string
	Preserved  []string
	Orphaned   []string
	Conflicts  []merge.Conflict
	Backup     string
	Record     manifest.FileRecord
	Err        error
}

// Result collects the outcome of one generation pass.
type Result struct {
	Files []FileResult
}

// Records returns manifest records for every file that was processed.
func (r *Result) Records() []manifest.FileRecord {
	var out []manifest.FileRecord
	for _, f := range r.Files {
		if f.Err == nil {
			out = append(out, f.Record)
		}
	}
	return out
}

// Err joins the per-file I/O errors, or returns nil if there were none.
// Files whose existing region markers are malformed are left untouched and
// reported by Malformed instead.
func (r *Result) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil && !errors.Is(f.Err, merge.ErrMalformedRegion) {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Malformed returns the files skipped because their existing region markers
// could not be parsed.
func (r *Result) Malformed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if errors.Is(f.Err, merge.ErrMalformedRegion) {
			out = append(out, f)
		}
	}
	return out
}

// Count returns the number of files that ended with action a.
func (r *Result) Count(a merge.Action) int {
	n := 0
	for _, f := range r.Files {
		if f.Err == nil && f.Action == a {
			n++
		}
	}
	return n
}

// PreviousFunc looks up the record of the last write to a path.
type PreviousFunc func(path string) (manifest.FileRecord, bool)

// Generator renders and merges templates into a target tree.
type Generator struct {
	Fs       afero.Fs
	Facts    facts.Reader
	Workers  int
	Backup   BackupPolicy
	Previous PreviousFunc
	Log      *zap.Logger
}

// Generate processes every template. Per-file failures are reported in the
// result and never stop the other files.
func (g *Generator) Generate(ctx context.Context, templates []*catalog.Template) *Result {
	log := g.Log
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]FileResult, len(templates))

	eg, _ := errgroup.WithContext(ctx)
	if g.Workers > 0 {
		eg.SetLimit(g.Workers)
	}
	for i, t := range templates {
		eg.Go(func() error {
			results[i] = g.file(t)
			return nil
		})
	}
	_ = eg.Wait()

	for _, r := range results {
		if r.Err != nil {
			log.Warn("file not generated", zap.String("path", r.Path), zap.Error(r.Err))
			continue
		}
		log.Debug("file generated", zap.String("path", r.Path), zap.String("action", string(r.Action)),
			zap.Strings("preserved", r.Preserved), zap.Strings("unresolved", r.Unresolved))
		for _, c := range r.Conflicts {
			log.Warn("merge conflict", zap.String("path", r.Path), zap.String("kind", string(c.Kind)), zap.String("detail", c.Msg))
		}
	}
	return &Result{Files: results}
}

func (g *Generator) file(t *catalog.Template) (res FileResult) {
	res = FileResult{Path: t.Target, Template: t.Name}
	dest := path.Join("/", t.Target)

	defer func() {
		if r := recover(); r != nil {
			res.Err = &FileError{Path: t.Target, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	rendered := t.Tpl.Render(g.Facts)
	res.Unresolved = rendered.Unresolved

	existingData, err := platform.ReadFileIfExists(g.Fs, dest)
	if err != nil {
		res.Err = &FileError{Path: t.Target, Err: err}
		return res
	}
	var existing *string
	if existingData != nil {
		s := string(existingData)
		existing = &s
	}

	merged, err := merge.Merge(existing, rendered.Content)
	if err != nil {
		res.Err = &FileError{Path: t.Target, Err: err}
		return res
	}
	res.Action = merged.Action
	res.Preserved = merged.Preserved
	res.Orphaned = merged.Orphaned
	res.Conflicts = merged.Conflicts

	conflict := false
	if existing != nil && merged.Action != merge.ActionUnchanged {
		if c, ok := g.editedOutside(t.Target, *existing); ok {
			conflict = true
			res.Conflicts = append(res.Conflicts, c)
		}
		if g.Backup.wants(conflict) {
			res.Backup = t.Target + BackupSuffix
			if err := platform.CopyFile(g.Fs, dest, dest+BackupSuffix); err != nil {
				res.Err = &FileError{Path: t.Target, Err: fmt.Errorf("backing up: %w", err)}
				return res
			}
		}
	}

	if merged.Action != merge.ActionUnchanged {
		if err := platform.WriteFileAtomic(g.Fs, dest, []byte(merged.Content), platform.FilePerm); err != nil {
			res.Err = &FileError{Path: t.Target, Err: err}
			return res
		}
	}

	skeleton, err := merge.Skeleton(merged.Content)
	if err != nil {
		res.Err = &FileError{Path: t.Target, Err: err}
		return res
	}
	res.Record = manifest.FileRecord{
		Path:      t.Target,
		Action:    string(merged.Action),
		SHA256:    merge.Hash(merged.Content),
		Skeleton:  skeleton,
		Required:  t.Required,
		Preserved: merged.Preserved,
	}
	return res
}

// editedOutside compares the on-disk skeleton with the one recorded at the
// last write. A file with no record was not written by a previous run.
func (g *Generator) editedOutside(target, existing string) (merge.Conflict, bool) {
	var prev manifest.FileRecord
	var ok bool
	if g.Previous != nil {
		prev, ok = g.Previous(target)
	}
	if !ok || prev.Skeleton == "" {
		return merge.Conflict{
			Kind: merge.ConflictEditedOutside,
			Msg:  "file exists but was not written by a previous run",
		}, true
	}
	skeleton, err := merge.Skeleton(existing)
	if err != nil || skeleton == prev.Skeleton {
		return merge.Conflict{}, false
	}
	return merge.Conflict{
		Kind: merge.ConflictEditedOutside,
		Msg:  "file was edited outside its preserved regions since the last run; those edits are overwritten",
	}, true
}
