// Package align defines the aligner capability consumed by the screening
// pipeline. The pipeline never aligns anything itself: it asks a Loader for
// one Aligner per reference per worker and treats the returned hits as
// opaque evidence.
package align

import "context"

// Hit is one alignment of a query against a reference. Offsets are 0-based
// on the query; QueryStart may exceed QueryEnd for reverse-strand hits from
// some aligners, so consumers take the absolute span.
type Hit struct {
	QueryStart   int
	QueryEnd     int
	MatchedBases int // residue matches, PAF column 10
	BlockLen     int // alignment block length, PAF column 11
}

// Span returns |QueryEnd - QueryStart|.
func (h Hit) Span() int {
	if h.QueryEnd < h.QueryStart {
		return h.QueryStart - h.QueryEnd
	}
	return h.QueryEnd - h.QueryStart
}

// Aligner maps query sequences against one reference. Implementations are
// not required to be safe for concurrent use.
type Aligner interface {
	Map(ctx context.Context, seq []byte) ([]Hit, error)
	Close() error
}

// Loader constructs an independent Aligner for the reference at path using
// the named preset.
type Loader interface {
	Load(path, preset string) (Aligner, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path, preset string) (Aligner, error)

func (f LoaderFunc) Load(path, preset string) (Aligner, error) { return f(path, preset) }
