package screen

import (
	"github.com/SamStudio8/dehumanizer/pkg/align"
)

// Reference is one contaminant reference. Aligner is the instance built when
// the set was loaded; workers build their own through the set's Loader.
type Reference struct {
	Name    string
	Path    string
	Aligner align.Aligner
}

// ReferenceSet is the ordered list of references for one preset. Order fixes
// the flag matrix columns and the report columns.
type ReferenceSet struct {
	Preset string
	Refs   []*Reference

	loader align.Loader
}

// LoadReferences keeps the entries matching preset, in order, and builds one
// aligner per reference so a bad reference fails before any work starts.
func LoadReferences(entries []ManifestEntry, preset string, loader align.Loader) (*ReferenceSet, error) {
	matched := ForPreset(entries, preset)
	if len(matched) == 0 {
		return nil, &ConfigError{Msg: "manifest contains no references for preset=" + preset, Err: ErrNoReferences}
	}

	set := &ReferenceSet{Preset: preset, loader: loader}
	for _, e := range matched {
		a, err := loader.Load(e.Path, preset)
		if err != nil {
			set.Close()
			return nil, &AlignerInitError{Reference: e.Name, Path: e.Path, Err: err}
		}
		set.Refs = append(set.Refs, &Reference{Name: e.Name, Path: e.Path, Aligner: a})
	}
	return set, nil
}

func (s *ReferenceSet) Len() int { return len(s.Refs) }

// Names returns the reference names in column order.
func (s *ReferenceSet) Names() []string {
	names := make([]string, len(s.Refs))
	for i, r := range s.Refs {
		names[i] = r.Name
	}
	return names
}

// newAligners builds a private aligner per reference for one worker.
func (s *ReferenceSet) newAligners() ([]align.Aligner, error) {
	out := make([]align.Aligner, 0, len(s.Refs))
	for _, r := range s.Refs {
		a, err := s.loader.Load(r.Path, s.Preset)
		if err != nil {
			closeAll(out)
			return nil, &AlignerInitError{Reference: r.Name, Path: r.Path, Err: err}
		}
		out = append(out, a)
	}
	return out, nil
}

// Close releases the aligners built by LoadReferences.
func (s *ReferenceSet) Close() error {
	var first error
	for _, r := range s.Refs {
		if r.Aligner == nil {
			continue
		}
		if err := r.Aligner.Close(); err != nil && first == nil {
			first = err
		}
		r.Aligner = nil
	}
	return first
}

func closeAll(as []align.Aligner) {
	for _, a := range as {
		a.Close()
	}
}
