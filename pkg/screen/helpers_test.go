package screen

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/SamStudio8/dehumanizer/pkg/align"
	"github.com/SamStudio8/dehumanizer/pkg/records"
)

// fakeAligner answers from a fixed table keyed by query sequence. A few
// magic sequences trigger failure modes.
type fakeAligner struct {
	table map[string][]align.Hit
	calls *atomic.Int64
}

var errBoom = errors.New("boom")

func (a *fakeAligner) Map(ctx context.Context, seq []byte) ([]align.Hit, error) {
	if a.calls != nil {
		a.calls.Add(1)
	}
	switch string(seq) {
	case "SLOW":
		<-ctx.Done()
		return nil, ctx.Err()
	case "BOOM":
		return nil, errBoom
	case "PANIC":
		panic("aligner exploded")
	}
	return a.table[string(seq)], nil
}

func (a *fakeAligner) Close() error { return nil }

// fakeLoader serves one table per reference path.
type fakeLoader struct {
	tables map[string]map[string][]align.Hit
	calls  atomic.Int64
	loads  atomic.Int64
}

func (l *fakeLoader) Load(path, _ string) (align.Aligner, error) {
	table, ok := l.tables[path]
	if !ok {
		return nil, errors.New("no such reference")
	}
	l.loads.Add(1)
	return &fakeAligner{table: table, calls: &l.calls}, nil
}

// full is a hit covering the whole query at full identity.
func full(seq string) align.Hit {
	return align.Hit{QueryStart: 0, QueryEnd: len(seq), MatchedBases: len(seq), BlockLen: len(seq)}
}

func mustRefs(t *testing.T, l align.Loader, names ...string) *ReferenceSet {
	t.Helper()
	var entries []ManifestEntry
	for _, n := range names {
		entries = append(entries, ManifestEntry{Name: n, Path: n + ".fa", Preset: "sr"})
	}
	set, err := LoadReferences(entries, "sr", l)
	if err != nil {
		t.Fatalf("load references: %v", err)
	}
	t.Cleanup(func() { set.Close() })
	return set
}

func testConfig() *Config {
	c := NewConfig()
	c.Workers = 3
	c.QueueDepth = 2
	c.BlockReport = 2
	return c
}

func reads(seqs ...string) *records.Memory {
	m := &records.Memory{}
	for i, s := range seqs {
		m.Records = append(m.Records, records.Record{
			Name:     "r" + string(rune('a'+i)),
			Seq:      []byte(s),
			QueryLen: len(s),
			RefLen:   -1,
		})
	}
	return m
}

func run(t *testing.T, in RunInput) (*RunReport, *records.Collect) {
	t.Helper()
	sink := &records.Collect{}
	in.Sink = sink
	if in.Config == nil {
		in.Config = testConfig()
	}
	rep, err := Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return rep, sink
}

func names(c *records.Collect) string { return strings.Join(c.Names(), ",") }
