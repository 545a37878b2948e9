package screen

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RunReport is the outcome of one run.
type RunReport struct {
	RunID      string
	Name       string
	Mode       Mode
	References []string

	Total      int
	Dropped    int
	Kept       int
	Hits       int // rows with an accepted hit
	Trash      int
	Known      int
	Collateral int
	TimedOut   int

	// PerReference counts rows with an accepted hit per reference, in
	// reference order. In break-first mode a row counts for one reference.
	PerReference []int

	// FormatErrors counts records a check could not evaluate.
	FormatErrors int
	Elapsed      time.Duration
}

var auditColumns = []string{
	"name", "seqs_in", "seqs_total_dropped", "seqs_out",
	"n_hits", "n_clipped", "n_known", "n_collateral", "-",
}

// AuditHeader is the tab-delimited audit log header for refs.
func AuditHeader(refs []string) string {
	return strings.Join(append(append([]string(nil), auditColumns...), refs...), "\t")
}

// AuditRow is the tab-delimited audit log line for r. The name column is
// the base name of r.Name.
func (r *RunReport) AuditRow() string {
	name := r.Name
	if name != "" && name != "-" {
		name = filepath.Base(name)
	}
	fields := []string{
		name,
		strconv.Itoa(r.Total),
		strconv.Itoa(r.Dropped),
		strconv.Itoa(r.Kept),
		strconv.Itoa(r.Hits),
		strconv.Itoa(r.Trash),
		strconv.Itoa(r.Known),
		strconv.Itoa(r.Collateral),
		"-",
	}
	for _, n := range r.PerReference {
		fields = append(fields, strconv.Itoa(n))
	}
	return strings.Join(fields, "\t")
}

// WriteAudit writes the audit log header followed by one row per report.
func WriteAudit(w io.Writer, refs []string, reports ...*RunReport) error {
	if _, err := fmt.Fprintln(w, AuditHeader(refs)); err != nil {
		return err
	}
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, r.AuditRow()); err != nil {
			return err
		}
	}
	return nil
}
