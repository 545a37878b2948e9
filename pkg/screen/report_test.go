package screen

import (
	"bytes"
	"testing"
)

func TestWriteAudit(t *testing.T) {
	rep := &RunReport{
		Name:         "/data/out/clean.bam",
		Total:        10,
		Dropped:      4,
		Kept:         6,
		Hits:         2,
		Trash:        1,
		Known:        0,
		Collateral:   1,
		PerReference: []int{2, 0},
	}
	var buf bytes.Buffer
	if err := WriteAudit(&buf, []string{"human", "phix"}, rep); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "name\tseqs_in\tseqs_total_dropped\tseqs_out\tn_hits\tn_clipped\tn_known\tn_collateral\t-\thuman\tphix\n" +
		"clean.bam\t10\t4\t6\t2\t1\t0\t1\t-\t2\t0\n"
	if buf.String() != want {
		t.Fatalf("unexpected audit log:\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestAuditRowForStdout(t *testing.T) {
	rep := &RunReport{Name: "-", PerReference: []int{0}}
	if got := rep.AuditRow(); got != "-\t0\t0\t0\t0\t0\t0\t0\t-\t0" {
		t.Fatalf("unexpected row %q", got)
	}
}
