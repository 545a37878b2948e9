package screen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SamStudio8/dehumanizer/internal/logx"
	"github.com/SamStudio8/dehumanizer/pkg/align"
)

// WorkItem is one read queued for screening. It carries the write handle
// for its matrix row, so only the worker that receives it can write there.
type WorkItem struct {
	Index int
	Name  string
	Seq   []byte
	row   Row
}

type workerOptions struct {
	policy     Policy
	breakFirst bool
	timeout    time.Duration
	collectBad bool // keep the names of bad rows for mate collateral
}

// worker owns one private aligner per reference and screens items until the
// queue is closed or the run is cancelled.
type worker struct {
	id       int
	refs     []*Reference
	aligners []align.Aligner
	owned    bool
	opts     workerOptions

	// partial results, folded after the pool stops
	badSeen  map[string]struct{}
	screened int
	timedOut int
}

func (w *worker) run(ctx context.Context, queue <-chan WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: worker %d panicked: %v", ErrWorkerFailed, w.id, r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case item, ok := <-queue:
			if !ok {
				return nil
			}
			if err := w.screen(ctx, item); err != nil {
				return err
			}
		}
	}
}

func (w *worker) screen(ctx context.Context, item WorkItem) error {
	row := item.row
	row.reset()

	ictx := ctx
	if w.opts.timeout > 0 {
		var cancel context.CancelFunc
		ictx, cancel = context.WithTimeout(ctx, w.opts.timeout)
		defer cancel()
	}

	for i, a := range w.aligners {
		if ictx.Err() != nil {
			return w.interrupted(ctx, item)
		}
		hits, err := a.Map(ictx, item.Seq)
		if err != nil {
			if ictx.Err() != nil {
				return w.interrupted(ctx, item)
			}
			return fmt.Errorf("%w: worker %d: read %d (%s) against %s: %w",
				ErrWorkerFailed, w.id, item.Index, item.Name, w.refs[i].Name, err)
		}

		accepted := false
		for _, h := range hits {
			if w.opts.policy.Accept(h, len(item.Seq)) {
				accepted = true
				break
			}
		}
		if accepted {
			row.set(i)
			if w.opts.breakFirst {
				break
			}
		}
	}

	row.finish(Screened)
	w.screened++
	if row.any() {
		w.remember(item.Name)
	}
	return nil
}

// interrupted handles an item whose context ended mid-screen. A run that is
// shutting down abandons the row; an expired item deadline marks the row
// timed out, which drops the read.
func (w *worker) interrupted(ctx context.Context, item WorkItem) error {
	if ctx.Err() != nil {
		return nil
	}
	item.row.finish(TimedOut)
	w.timedOut++
	w.remember(item.Name)
	return nil
}

func (w *worker) remember(name string) {
	if !w.opts.collectBad {
		return
	}
	if w.badSeen == nil {
		w.badSeen = make(map[string]struct{})
	}
	w.badSeen[name] = struct{}{}
}

func (w *worker) close() {
	if w.owned {
		closeAll(w.aligners)
	}
	w.aligners = nil
}

// pool runs the workers. The first worker error cancels the run.
type pool struct {
	workers []*worker
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	errOnce sync.Once
	err     error
}

// startPool builds every worker's aligners before any worker starts, so a
// reference that fails to load aborts the run with no work done.
func startPool(ctx context.Context, cancel context.CancelFunc, refs *ReferenceSet, n int,
	opts workerOptions, queue <-chan WorkItem, log *logx.Logger) (*pool, error) {

	p := &pool{cancel: cancel}
	for i := 0; i < n; i++ {
		w := &worker{id: i, refs: refs.Refs, opts: opts}
		if i == 0 && loadedAligners(refs) {
			for _, r := range refs.Refs {
				w.aligners = append(w.aligners, r.Aligner)
			}
		} else {
			as, err := refs.newAligners()
			if err != nil {
				for _, built := range p.workers {
					built.close()
				}
				return nil, err
			}
			w.aligners = as
			w.owned = true
		}
		p.workers = append(p.workers, w)
	}
	log.Infof("%d workers ready with %d aligners each", n, refs.Len())

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *worker) {
			defer p.wg.Done()
			if err := w.run(ctx, queue); err != nil {
				p.fail(err)
			}
		}(w)
	}
	return p, nil
}

func loadedAligners(refs *ReferenceSet) bool {
	for _, r := range refs.Refs {
		if r.Aligner == nil {
			return false
		}
	}
	return true
}

func (p *pool) fail(err error) {
	p.errOnce.Do(func() {
		p.err = err
		p.cancel()
	})
}

// wait blocks until every worker has exited, then releases their aligners.
// It returns the first worker error.
func (p *pool) wait() error {
	p.wg.Wait()
	for _, w := range p.workers {
		w.close()
	}
	return p.err
}
