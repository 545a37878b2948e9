// Package kmer is a small exact-seed aligner used when no external aligner is
// wired in. It is tuned to answer "does this read look like it came from this
// reference", not to produce base-level alignments.
package kmer

import (
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Preset holds the seeding parameters selected by a preset name.
type Preset struct {
	K        int // seed length, at most 31
	MinSeeds int // seeds needed before a chain is reported
	Band     int // max diagonal drift inside a chain
	MaxGap   int // max query gap between consecutive seeds
	MaxOcc   int // seeds occurring more often than this are ignored
}

var presets = map[string]Preset{
	"sr":       {K: 21, MinSeeds: 2, Band: 8, MaxGap: 60, MaxOcc: 500},
	"map-ont":  {K: 15, MinSeeds: 3, Band: 64, MaxGap: 500, MaxOcc: 1000},
	"map-pb":   {K: 15, MinSeeds: 3, Band: 64, MaxGap: 500, MaxOcc: 1000},
	"map-hifi": {K: 19, MinSeeds: 3, Band: 32, MaxGap: 300, MaxOcc: 1000},
	"asm5":     {K: 19, MinSeeds: 5, Band: 16, MaxGap: 200, MaxOcc: 1000},
	"asm10":    {K: 19, MinSeeds: 5, Band: 24, MaxGap: 250, MaxOcc: 1000},
	"asm20":    {K: 15, MinSeeds: 5, Band: 32, MaxGap: 300, MaxOcc: 1000},
}

// References routinely carry IUPAC codes and soft-masked bases; they are
// simply skipped when seeding.
func init() { seq.ValidateSeq = false }

var defaultPreset = Preset{K: 17, MinSeeds: 3, Band: 32, MaxGap: 300, MaxOcc: 1000}

// PresetFor returns the parameters for name, falling back to a general
// purpose setting for names it does not know.
func PresetFor(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	return defaultPreset
}

type location struct {
	contig int32
	pos    int32
}

// Index maps every k-mer of a reference to its locations. It is immutable
// once built and shared by all aligners loaded from the same path.
type Index struct {
	preset  Preset
	names   []string
	lengths []int
	seeds   map[uint64][]location
}

var code = func() (t [256]int8) {
	for i := range t {
		t[i] = -1
	}
	for _, c := range []struct {
		b byte
		v int8
	}{{'A', 0}, {'C', 1}, {'G', 2}, {'T', 3}, {'a', 0}, {'c', 1}, {'g', 2}, {'t', 3}} {
		t[c.b] = c.v
	}
	return t
}()

// forEachKmer calls fn with the start offset and 2-bit packed value of every
// k-mer of s that contains only ACGT.
func forEachKmer(s []byte, k int, fn func(pos int, v uint64) bool) {
	mask := uint64(1)<<(2*uint(k)) - 1
	var v uint64
	valid := 0
	for i, b := range s {
		c := code[b]
		if c < 0 {
			valid = 0
			v = 0
			continue
		}
		v = (v<<2 | uint64(c)) & mask
		valid++
		if valid >= k && !fn(i-k+1, v) {
			return
		}
	}
}

// BuildIndex reads a FASTA/FASTQ reference (optionally compressed) and
// indexes it with the given preset.
func BuildIndex(path string, preset Preset) (*Index, error) {
	if preset.K <= 0 || preset.K > 31 {
		return nil, fmt.Errorf("invalid seed length %d", preset.K)
	}

	reader, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to open reference %s: %w", path, err)
	}
	defer reader.Close()

	idx := &Index{
		preset: preset,
		seeds:  make(map[uint64][]location, 1<<16),
	}
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read reference %s: %w", path, err)
		}
		contig := int32(len(idx.names))
		idx.names = append(idx.names, string(record.ID))
		idx.lengths = append(idx.lengths, len(record.Seq.Seq))
		forEachKmer(record.Seq.Seq, preset.K, func(pos int, v uint64) bool {
			idx.seeds[v] = append(idx.seeds[v], location{contig: contig, pos: int32(pos)})
			return true
		})
	}
	if len(idx.names) == 0 {
		return nil, fmt.Errorf("reference %s contains no sequences", path)
	}
	return idx, nil
}

// Contigs returns the number of sequences in the reference.
func (idx *Index) Contigs() int { return len(idx.names) }
