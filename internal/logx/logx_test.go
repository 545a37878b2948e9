package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsAndQuiet(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Infof("%d references", 3)
	l.Warnf("slow")
	if got := buf.String(); got != "[INFO] 3 references\n[WARN] slow\n" {
		t.Fatalf("unexpected output %q", got)
	}

	buf.Reset()
	l.SetQuiet(true)
	l.Infof("hidden")
	l.Notef("hidden")
	l.Failf("shown")
	if got := buf.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "[FAIL] shown") {
		t.Fatalf("quiet mode leaked or dropped lines: %q", got)
	}
}
