package verify

import (
	"fmt"
	"path"
	"slices"

	"github.com/spf13/afero"

	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/render"
)

// Run verifies the target tree in fsys against m. The tree is only read.
func Run(fsys afero.Fs, m *manifest.Manifest) *Report {
	ro := afero.NewReadOnlyFs(fsys)
	r := &Report{Findings: []Finding{}}
	checkConsistency(r, m)
	for _, rec := range m.Files() {
		r.Files++
		data, ok := checkFile(r, ro, rec)
		if ok {
			checkPlaceholders(r, rec, string(data))
		}
	}
	return r
}

func checkFile(r *Report, fsys afero.Fs, rec manifest.FileRecord) ([]byte, bool) {
	name := path.Join("/", rec.Path)
	info, err := fsys.Stat(name)
	if err != nil {
		r.add(Finding{Check: CheckFiles, Level: Failed, Path: rec.Path, Message: "file is missing"})
		return nil, false
	}
	if info.IsDir() {
		r.add(Finding{Check: CheckFiles, Level: Failed, Path: rec.Path, Message: "expected a file, found a directory"})
		return nil, false
	}
	if info.Size() == 0 {
		r.add(Finding{Check: CheckFiles, Level: Failed, Path: rec.Path, Message: "file is empty"})
		return nil, false
	}
	data, err := afero.ReadFile(fsys, name)
	if err != nil {
		r.add(Finding{Check: CheckFiles, Level: Failed, Path: rec.Path, Message: fmt.Sprintf("reading file: %v", err)})
		return nil, false
	}
	return data, true
}

func checkPlaceholders(r *Report, rec manifest.FileRecord, content string) {
	seen := map[string]bool{}
	for _, m := range render.UnresolvedPattern.FindAllStringSubmatch(content, -1) {
		key := m[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		level := Warning
		msg := "unresolved placeholder " + key
		if slices.Contains(rec.Required, key) {
			level = Failed
			msg = "required placeholder " + key + " is unresolved"
		}
		r.add(Finding{Check: CheckPlaceholders, Level: level, Path: rec.Path, Message: msg})
	}
}

func checkConsistency(r *Report, m *manifest.Manifest) {
	pending := false
	for _, s := range m.Steps {
		if s.Status == manifest.StatusPending {
			pending = true
		}
		for _, dep := range s.DependsOn {
			d := m.Step(dep)
			if d == nil {
				r.add(Finding{Check: CheckConsistency, Level: Failed, Step: s.Name,
					Message: fmt.Sprintf("depends on unknown step %q", dep)})
				continue
			}
			if s.Status == manifest.StatusCompleted && d.Status == manifest.StatusFailed {
				r.add(Finding{Check: CheckConsistency, Level: Failed, Step: s.Name,
					Message: fmt.Sprintf("completed although dependency %q failed", dep)})
			}
		}
		if s.Status != manifest.StatusFailed {
			continue
		}
		if s.Blocking {
			r.add(Finding{Check: CheckConsistency, Level: Failed, Step: s.Name, Message: "blocking step failed: " + s.Error})
		} else {
			r.add(Finding{Check: CheckConsistency, Level: Warning, Step: s.Name, Message: "step failed: " + s.Error})
		}
	}
	if pending && m.CompletedAt != nil {
		r.add(Finding{Check: CheckConsistency, Level: Warning, Message: "run is marked complete but has pending steps"})
	}
}
