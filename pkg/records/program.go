package records

import (
	"fmt"

	"github.com/biogo/hts/sam"
)

const ProgramName = "dehumanizer"

// WithProgram returns a copy of h with a @PG line for this run appended. The
// ID is "dehumanizer.<date>", suffixed with a counter if that ID is taken.
// The new line chains to the last existing @PG through its PP tag.
func WithProgram(h *sam.Header, version, cmdline, date string) (*sam.Header, error) {
	var out *sam.Header
	if h == nil {
		var err error
		out, err = sam.NewHeader(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create header: %w", err)
		}
	} else {
		out = h.Clone()
	}

	var prev string
	if progs := out.Progs(); len(progs) > 0 {
		prev = progs[len(progs)-1].UID()
	}

	base := ProgramName + "." + date
	id := base
	var err error
	for i := 1; i <= 100; i++ {
		pg := sam.NewProgram(id, ProgramName, cmdline, prev, version)
		if err = out.AddProgram(pg); err == nil {
			return out, nil
		}
		id = fmt.Sprintf("%s.%d", base, i)
	}
	return nil, fmt.Errorf("failed to add @PG line %s: %w", base, err)
}
