package screen

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/pargo/parallel"
)

// matrixTally is the fold of a flag matrix: rows with at least one accepted
// hit, timed-out rows without one, and per-reference column sums.
type matrixTally struct {
	hits     int
	timedOut int
	perRef   []int
}

func foldMatrix(m *FlagMatrix, rows int) matrixTally {
	refs := m.Refs()
	if rows == 0 {
		return matrixTally{perRef: make([]int, refs)}
	}
	result := parallel.RangeReduce(0, rows, 0, func(low, high int) interface{} {
		t := matrixTally{perRef: make([]int, refs)}
		for r := low; r < high; r++ {
			hit := false
			for c := 0; c < refs; c++ {
				if m.At(r, c) {
					t.perRef[c]++
					hit = true
				}
			}
			if hit {
				t.hits++
			} else if m.Status(r) == TimedOut {
				t.timedOut++
			}
		}
		return t
	}, func(x, y interface{}) interface{} {
		a, b := x.(matrixTally), y.(matrixTally)
		a.hits += b.hits
		a.timedOut += b.timedOut
		for i := range a.perRef {
			a.perRef[i] += b.perRef[i]
		}
		return a
	})
	return result.(matrixTally)
}

// dropRow is the read-path decision: any accepted hit, or a timeout.
func dropRow(m *FlagMatrix, row int) bool {
	return m.Any(row) || m.Status(row) == TimedOut
}

// Verdict is the classification of one alignment record.
type Verdict uint8

const (
	Good Verdict = iota
	BadHit
	BadTrash
	BadKnown
	BadTimeout
)

func (v Verdict) String() string {
	switch v {
	case BadHit:
		return "hit"
	case BadTrash:
		return "trash"
	case BadKnown:
		return "known"
	case BadTimeout:
		return "timed-out"
	default:
		return "good"
	}
}

// signals holds the per-row evidence the dispatcher computes for the
// alignment path before the hit outcome is known.
type signals struct {
	dispatched *bitset.BitSet
	trash      *bitset.BitSet
	known      *bitset.BitSet
}

func newSignals(rows int) *signals {
	return &signals{
		dispatched: bitset.New(uint(rows)),
		trash:      bitset.New(uint(rows)),
		known:      bitset.New(uint(rows)),
	}
}

// verdict applies HIT > TRASH > KNOWN > TIMEOUT to a row. Rows that were
// never dispatched are always Good.
func (s *signals) verdict(m *FlagMatrix, row int) Verdict {
	r := uint(row)
	switch {
	case !s.dispatched.Test(r):
		return Good
	case m.Any(row):
		return BadHit
	case s.trash.Test(r):
		return BadTrash
	case s.known.Test(r):
		return BadKnown
	case m.Status(row) == TimedOut:
		return BadTimeout
	default:
		return Good
	}
}

type recordTally struct {
	hits, trash, known, timedOut int
}

// classifyRecords builds the bad mask for the alignment path.
func classifyRecords(m *FlagMatrix, rows int, s *signals) (*bitset.BitSet, recordTally) {
	mask := bitset.New(uint(rows))
	var t recordTally
	for r := 0; r < rows; r++ {
		switch s.verdict(m, r) {
		case Good:
			continue
		case BadHit:
			t.hits++
		case BadTrash:
			t.trash++
		case BadKnown:
			t.known++
		case BadTimeout:
			t.timedOut++
		}
		mask.Set(uint(r))
	}
	return mask, t
}

// trashSignal reports whether a record fails the self-alignment length check.
// ok is false when the record carries no alignment length to check.
func trashSignal(refLen, queryLen int, minLen float64) (trash, ok bool) {
	if queryLen == 0 {
		return true, true
	}
	if refLen < 0 || queryLen < 0 {
		return false, false
	}
	return float64(refLen)/float64(queryLen)*100 < minLen, true
}
