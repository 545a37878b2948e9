package screen

import (
	"context"
	"io"

	"github.com/SamStudio8/dehumanizer/pkg/records"
)

type outcome uint8

const (
	keep outcome = iota
	drop
	dropCollateral
)

type emitTally struct {
	kept, dropped, collateral int
}

// emit re-reads src from the start and writes the first limit records that
// decide keeps to sink, in input order and unchanged.
func emit(ctx context.Context, src records.Source, sink records.Sink, limit int,
	decide func(idx int, rec records.Record) outcome) (emitTally, error) {

	var t emitTally
	it, err := src.Open()
	if err != nil {
		return t, &IOError{Op: "reopen input", Err: err}
	}
	defer it.Close()

	for idx := 0; idx < limit; idx++ {
		if idx&0xfff == 0 && ctx.Err() != nil {
			return t, ctx.Err()
		}
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return t, &IOError{Op: "read input", Err: err}
		}

		switch decide(idx, rec) {
		case keep:
			if err := sink.Write(rec); err != nil {
				return t, &IOError{Op: "write output", Err: err}
			}
			t.kept++
		case dropCollateral:
			t.collateral++
			t.dropped++
		default:
			t.dropped++
		}
	}
	return t, nil
}
