package records

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
)

func drain(t *testing.T, src Source) []Record {
	t.Helper()
	it, err := src.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer it.Close()
	var out []Record
	for {
		r, err := it.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, r)
	}
}

func TestReadNameSet(t *testing.T) {
	names, err := ReadNameSet(strings.NewReader("read1\n  read2 \n\n\t\nread1\nread3"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 names, got %d: %v", len(names), names)
	}
	for _, n := range []string{"read1", "read2", "read3"} {
		if _, ok := names[n]; !ok {
			t.Errorf("missing %q", n)
		}
	}
}

func TestCompressionFor(t *testing.T) {
	cases := map[string]Compression{
		"clean.fq":      Plain,
		"clean.fq.gz":   Gzip,
		"clean.FA.GZ":   Gzip,
		"clean.fq.zst":  Zstd,
		"clean.fq.zstd": Zstd,
	}
	for path, want := range cases {
		if got := CompressionFor(path); got != want {
			t.Errorf("%s: got %v, want %v", path, got, want)
		}
	}
}

func TestFastxRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dirty.fq")
	data := "@r1 sample=a\nACGTACGT\n+\nIIIIIIII\n@r2\nTTTT\n+\n####\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src := OpenFastx(in)
	if _, ok := src.Count(); ok {
		t.Fatal("FASTX count should not be known up front")
	}
	recs := drain(t, src)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Name != "r1" || string(recs[0].Seq) != "ACGTACGT" || recs[0].QueryLen != 8 || recs[0].RefLen != -1 {
		t.Fatalf("unexpected first record %+v", recs[0])
	}

	// A second Open starts again from the top.
	if again := drain(t, src); len(again) != 2 || again[1].Name != "r2" {
		t.Fatalf("source did not restart: %+v", again)
	}

	for _, name := range []string{"clean.fq", "clean.fq.gz"} {
		out := filepath.Join(dir, name)
		sink, err := CreateFastx(out, 0)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		for _, r := range recs {
			if err := sink.Write(r); err != nil {
				t.Fatalf("write: %v", err)
			}
		}
		if err := sink.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}

		back := drain(t, OpenFastx(out))
		if len(back) != 2 || back[0].Name != "r1" || string(back[1].Qual) != "####" {
			t.Fatalf("%s: unexpected records %+v", name, back)
		}
	}

	plain, err := os.ReadFile(filepath.Join(dir, "clean.fq"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(plain) != data {
		t.Fatalf("plain output differs from input:\n%s", plain)
	}
}

func TestFastaSink(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clean.fa")
	sink, err := CreateFastx(out, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := sink.Write(Record{Name: "c1", Seq: []byte("GATTACA")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, _ := os.ReadFile(out)
	if string(got) != ">c1\nGATTACA\n" {
		t.Fatalf("unexpected FASTA output %q", got)
	}
}

func TestSpoolReader(t *testing.T) {
	payload := bytes.Repeat([]byte(">r\nACGT\n"), 1000)
	sp, err := SpoolReader(bytes.NewReader(payload), t.TempDir(), "stdin.fa")
	if err != nil {
		t.Fatalf("spool: %v", err)
	}
	if sp.Bytes != int64(len(payload)) {
		t.Fatalf("spooled %d bytes, want %d", sp.Bytes, len(payload))
	}
	if recs := drain(t, OpenFastx(sp.Path)); len(recs) != 1000 {
		t.Fatalf("expected 1000 records from spool, got %d", len(recs))
	}
	if err := sp.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(sp.Path); !os.IsNotExist(err) {
		t.Fatalf("spool file still present: %v", err)
	}
}

func TestWithProgramAvoidsDuplicateIDs(t *testing.T) {
	h, err := WithProgram(nil, "0.1.0", "dehumanizer screen", "20200101")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	h2, err := WithProgram(h, "0.1.0", "dehumanizer screen again", "20200101")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(h.Progs()) != 1 {
		t.Fatalf("input header was modified: %d programs", len(h.Progs()))
	}
	progs := h2.Progs()
	if len(progs) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(progs))
	}
	if progs[0].UID() != "dehumanizer.20200101" || progs[1].UID() != "dehumanizer.20200101.1" {
		t.Fatalf("unexpected program IDs %q %q", progs[0].UID(), progs[1].UID())
	}
	if progs[0].Previous() != "" || progs[1].Previous() != "dehumanizer.20200101" {
		t.Fatalf("unexpected PP chain %q %q", progs[0].Previous(), progs[1].Previous())
	}
	text, err := h2.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(text), "PP:dehumanizer.20200101") {
		t.Fatalf("@PG line missing PP tag:\n%s", text)
	}
}

func TestAlignmentRoundTrip(t *testing.T) {
	h, err := sam.NewHeader(nil, nil)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	path := filepath.Join(t.TempDir(), "reads.bam")
	sink, err := CreateAlignments(path, h)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	in := []Record{
		{Name: "a", Seq: []byte("ACGTACGTAC"), Qual: []byte("IIIIIIIIII")},
		{Name: "b", Seq: []byte("GGGG")},
	}
	for _, r := range in {
		if err := sink.Write(r); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	src, err := OpenAlignments(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := src.Count(); ok {
		t.Fatal("count should be unknown without an index")
	}
	recs := drain(t, src)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Name != "a" || string(recs[0].Seq) != "ACGTACGTAC" || recs[0].QueryLen != 10 {
		t.Fatalf("unexpected record %+v", recs[0])
	}
	if recs[0].RefLen != -1 {
		t.Fatalf("unmapped record should have unknown RefLen, got %d", recs[0].RefLen)
	}
	if _, ok := recs[1].Native().(*sam.Record); !ok {
		t.Fatal("native SAM record not kept")
	}
}
