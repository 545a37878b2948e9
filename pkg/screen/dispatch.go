package screen

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/SamStudio8/dehumanizer/internal/logx"
	"github.com/SamStudio8/dehumanizer/pkg/records"
)

// dispatcher numbers records in input order and queues them for the pool.
type dispatcher struct {
	queue       chan<- WorkItem
	matrix      *FlagMatrix
	blockReport int
	log         *logx.Logger
	progress    func(done, total int)
}

// feed walks it, giving every record the next row index, and queues the
// records accept lets through. It stops after limit records when limit is
// positive. The queue is closed when feed returns, whatever the outcome.
func (d *dispatcher) feed(ctx context.Context, it records.Iterator, limit int,
	accept func(idx int, rec records.Record) bool) (int, error) {

	defer close(d.queue)

	n := 0
	blockStart := time.Now()
	for limit <= 0 || n < limit {
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, &IOError{Op: "read input", Err: err}
		}
		if n >= d.matrix.Rows() {
			return n, &IOError{Op: "read input", Err: fmt.Errorf("input has more than the %d records counted", d.matrix.Rows())}
		}

		if n > 0 && n%d.blockReport == 0 {
			elapsed := time.Since(blockStart)
			d.log.Notef("Queued read #%s. Last block pushed in %s (%s per read)",
				humanize.Comma(int64(n)), elapsed.Round(time.Millisecond), elapsed/time.Duration(d.blockReport))
			blockStart = time.Now()
		}

		idx := n
		n++
		if accept == nil || accept(idx, rec) {
			item := WorkItem{Index: idx, Name: rec.Name, Seq: rec.Seq, row: d.matrix.claim(idx)}
			select {
			case d.queue <- item:
			case <-ctx.Done():
				return n, ctx.Err()
			}
		}
		if d.progress != nil {
			d.progress(n, d.matrix.Rows())
		}
	}
	return n, nil
}

// countRecords is the counting pass for sources that cannot report a count.
func countRecords(ctx context.Context, src records.Source) (int, error) {
	it, err := src.Open()
	if err != nil {
		return 0, &IOError{Op: "open input", Err: err}
	}
	defer it.Close()

	n := 0
	for {
		if n&0xffff == 0 && ctx.Err() != nil {
			return n, ctx.Err()
		}
		if _, err := it.Next(); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, &IOError{Op: "count input", Err: err}
		}
		n++
	}
}
