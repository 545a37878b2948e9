package kmer

import (
	"context"
	"sort"
	"sync"

	"github.com/SamStudio8/dehumanizer/pkg/align"
)

// Loader builds each (path, preset) index once and hands out independent
// aligners over it. Aligners keep their own scratch buffers, so one per
// goroutine is required, but the index itself is shared.
type Loader struct {
	mu      sync.Mutex
	indexes map[string]*Index
}

func NewLoader() *Loader {
	return &Loader{indexes: make(map[string]*Index)}
}

func (l *Loader) Load(path, preset string) (align.Aligner, error) {
	key := preset + "\x00" + path

	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.indexes[key]
	if !ok {
		var err error
		idx, err = BuildIndex(path, PresetFor(preset))
		if err != nil {
			return nil, err
		}
		l.indexes[key] = idx
	}
	return NewAligner(idx), nil
}

type seed struct {
	contig  int32
	reverse bool
	diag    int // ref pos - query pos
	qpos    int
	rpos    int
}

// Aligner chains exact seeds into hits. Not safe for concurrent use.
type Aligner struct {
	idx   *Index
	seeds []seed
	rc    []byte
}

func NewAligner(idx *Index) *Aligner {
	return &Aligner{idx: idx}
}

func (a *Aligner) Close() error {
	a.seeds = nil
	a.rc = nil
	return nil
}

// Map returns one hit per seed chain, best first.
func (a *Aligner) Map(ctx context.Context, query []byte) ([]align.Hit, error) {
	p := a.idx.preset
	if len(query) < p.K {
		return nil, nil
	}

	a.seeds = a.seeds[:0]
	if err := a.collect(ctx, query, false); err != nil {
		return nil, err
	}
	a.rc = reverseComplement(a.rc[:0], query)
	if err := a.collect(ctx, a.rc, true); err != nil {
		return nil, err
	}
	if len(a.seeds) < p.MinSeeds {
		return nil, nil
	}

	sort.Slice(a.seeds, func(i, j int) bool {
		x, y := a.seeds[i], a.seeds[j]
		if x.reverse != y.reverse {
			return !x.reverse
		}
		if x.contig != y.contig {
			return x.contig < y.contig
		}
		if x.diag != y.diag {
			return x.diag < y.diag
		}
		return x.qpos < y.qpos
	})

	var hits []align.Hit
	start := 0
	for i := 1; i <= len(a.seeds); i++ {
		if i < len(a.seeds) {
			prev, cur := a.seeds[i-1], a.seeds[i]
			if cur.reverse == prev.reverse && cur.contig == prev.contig && cur.diag-prev.diag <= p.Band {
				continue
			}
		}
		hits = a.chain(hits, a.seeds[start:i], len(query))
		start = i
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].MatchedBases > hits[j].MatchedBases
	})
	return hits, nil
}

func (a *Aligner) collect(ctx context.Context, s []byte, reverse bool) error {
	p := a.idx.preset
	var err error
	forEachKmer(s, p.K, func(pos int, v uint64) bool {
		if pos&63 == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		locs := a.idx.seeds[v]
		if len(locs) == 0 || len(locs) > p.MaxOcc {
			return true
		}
		for _, loc := range locs {
			a.seeds = append(a.seeds, seed{
				contig:  loc.contig,
				reverse: reverse,
				diag:    int(loc.pos) - pos,
				qpos:    pos,
				rpos:    int(loc.pos),
			})
		}
		return true
	})
	return err
}

// chain splits a band of diagonally close seeds wherever the query gap is too
// large and emits a hit for every piece with enough seeds.
func (a *Aligner) chain(hits []align.Hit, band []seed, qlen int) []align.Hit {
	p := a.idx.preset
	sort.Slice(band, func(i, j int) bool { return band[i].qpos < band[j].qpos })

	start := 0
	for i := 1; i <= len(band); i++ {
		if i < len(band) && band[i].qpos-band[i-1].qpos <= p.MaxGap {
			continue
		}
		piece := band[start:i]
		start = i
		if len(piece) < p.MinSeeds {
			continue
		}

		qs, qe := piece[0].qpos, piece[len(piece)-1].qpos+p.K
		rs, re := piece[0].rpos, piece[0].rpos+p.K
		matched, covered := 0, -1
		for _, s := range piece {
			if s.rpos < rs {
				rs = s.rpos
			}
			if s.rpos+p.K > re {
				re = s.rpos + p.K
			}
			from := s.qpos
			if from <= covered {
				from = covered + 1
			}
			if end := s.qpos + p.K - 1; end >= from {
				matched += end - from + 1
				covered = end
			}
		}
		block := qe - qs
		if re-rs > block {
			block = re - rs
		}
		if piece[0].reverse {
			qs, qe = qlen-qe, qlen-qs
		}
		hits = append(hits, align.Hit{
			QueryStart:   qs,
			QueryEnd:     qe,
			MatchedBases: matched,
			BlockLen:     block,
		})
	}
	return hits
}

var complement = func() (t [256]byte) {
	for i := range t {
		t[i] = 'N'
	}
	for _, pair := range []string{"AT", "TA", "CG", "GC", "at", "ta", "cg", "gc"} {
		t[pair[0]] = pair[1]
	}
	return t
}()

func reverseComplement(dst, s []byte) []byte {
	for i := len(s) - 1; i >= 0; i-- {
		dst = append(dst, complement[s[i]])
	}
	return dst
}
