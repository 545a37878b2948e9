package screen

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/SamStudio8/dehumanizer/internal/logx"
	"github.com/SamStudio8/dehumanizer/pkg/records"
)

// Mode selects the classification path.
type Mode int

const (
	// ModeReads screens plain reads (FASTA/FASTQ): a read is dropped when
	// any reference accepts a hit. Thresholds combine with AllOf.
	ModeReads Mode = iota
	// ModeAlignments screens alignment records (BAM/SAM) in three passes
	// with trash, known-bad and mate-collateral checks. Thresholds combine
	// with AnyOf and screening always stops at the first accepted hit.
	ModeAlignments
)

func (m Mode) String() string {
	if m == ModeAlignments {
		return "alignments"
	}
	return "reads"
}

// RunInput is everything a single screening run needs.
type RunInput struct {
	// Name labels the run in the report, usually the clean output's name.
	Name       string
	Mode       Mode
	Source     records.Source
	Sink       records.Sink
	References *ReferenceSet
	Config     *Config

	// Count, when positive, sizes the run without a counting pass and caps
	// the number of records screened and written.
	Count int
	// BadNames are identifiers known to be bad. Alignment mode only.
	BadNames map[string]struct{}

	Log      *logx.Logger
	Progress func(done, total int)
}

// Run screens one input. The sink is written but not closed.
func Run(ctx context.Context, in RunInput) (*RunReport, error) {
	if in.Source == nil || in.Sink == nil {
		return nil, configErrorf("run needs a record source and sink")
	}
	if in.References == nil || in.References.Len() == 0 {
		return nil, configErrorf("run needs at least one reference")
	}
	cfg := in.Config
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := in.Log
	if log == nil {
		log = logx.Discard()
	}

	started := time.Now()
	report := &RunReport{
		RunID:      uuid.NewString(),
		Name:       in.Name,
		Mode:       in.Mode,
		References: in.References.Names(),
	}
	log.Infof("Run %s: screening %s against %d references (preset=%s)",
		report.RunID, in.Mode, in.References.Len(), in.References.Preset)

	rows, err := sizeRun(ctx, in, log)
	if err != nil {
		return nil, err
	}
	refs := in.References.Len()
	if !cfg.FitsMatrix(rows, refs) {
		log.Warnf("A %s x %d flag matrix may not fit in available memory", humanize.Comma(int64(rows)), refs)
	}
	matrix := NewFlagMatrix(rows, refs)
	log.Infof("Raised %s x %d flags", humanize.Comma(int64(rows)), refs)

	opts := workerOptions{
		policy:     Policy{MinLen: cfg.MinLen, MinID: cfg.MinID, Combine: AllOf},
		breakFirst: cfg.BreakFirst,
		timeout:    cfg.ItemTimeout,
	}
	if in.Mode == ModeAlignments {
		opts.policy.Combine = AnyOf
		opts.breakFirst = true
		opts.collectBad = true
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan WorkItem, cfg.QueueCapacity())
	p, err := startPool(runCtx, cancel, in.References, cfg.Workers, opts, queue, log)
	if err != nil {
		close(queue)
		return nil, err
	}

	it, err := in.Source.Open()
	if err != nil {
		close(queue)
		p.wait()
		return nil, &IOError{Op: "open input", Err: err}
	}

	d := &dispatcher{
		queue:       queue,
		matrix:      matrix,
		blockReport: cfg.BlockReport,
		log:         log,
		progress:    in.Progress,
	}

	var sig *signals
	var accept func(int, records.Record) bool
	dispatcherBad := make(map[string]struct{})
	if in.Mode == ModeAlignments {
		sig = newSignals(rows)
		accept = func(idx int, rec records.Record) bool {
			// Secondary and supplementary records often carry no sequence;
			// they are neither screened nor classified.
			if len(rec.Seq) == 0 {
				return false
			}
			sig.dispatched.Set(uint(idx))
			bad := false
			if cfg.TrashMinLen > 0 {
				trash, ok := trashSignal(rec.RefLen, rec.QueryLen, cfg.TrashMinLen)
				if !ok {
					report.FormatErrors++
					if report.FormatErrors <= 10 {
						log.Warnf("%v; trash check skipped", &RecordFormatError{Index: idx, Name: rec.Name, Field: "alignment length"})
					}
				} else if trash {
					sig.trash.Set(uint(idx))
					bad = true
				}
			}
			if _, ok := in.BadNames[rec.Name]; ok {
				sig.known.Set(uint(idx))
				bad = true
			}
			if bad {
				dispatcherBad[rec.Name] = struct{}{}
			}
			return true
		}
	}

	log.Infof("Feeding sequences to queue")
	n, feedErr := d.feed(runCtx, it, in.Count, accept)
	it.Close()
	if feedErr != nil {
		cancel()
	} else {
		log.Infof("Finished feeding sequences")
		log.Infof("Wait for queues to empty... be patient")
	}
	if err := p.wait(); err != nil {
		return nil, err
	}
	if feedErr != nil {
		if errors.Is(feedErr, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, feedErr
	}

	screened := 0
	badSeen := dispatcherBad
	for _, w := range p.workers {
		screened += w.screened + w.timedOut
		for name := range w.badSeen {
			badSeen[name] = struct{}{}
		}
	}
	log.Infof("Screened %s of %s records", humanize.Comma(int64(screened)), humanize.Comma(int64(n)))

	report.Total = n
	fold := foldMatrix(matrix, n)
	report.PerReference = fold.perRef

	var decide func(int, records.Record) outcome
	if in.Mode == ModeAlignments {
		mask, t := classifyRecords(matrix, n, sig)
		report.Hits, report.Trash, report.Known, report.TimedOut = t.hits, t.trash, t.known, t.timedOut
		decide = func(idx int, rec records.Record) outcome {
			if mask.Test(uint(idx)) {
				return drop
			}
			if _, ok := badSeen[rec.Name]; ok {
				return dropCollateral
			}
			return keep
		}
	} else {
		report.Hits, report.TimedOut = fold.hits, fold.timedOut
		decide = func(idx int, _ records.Record) outcome {
			if dropRow(matrix, idx) {
				return drop
			}
			return keep
		}
	}
	if report.TimedOut > 0 {
		log.Warnf("%s reads timed out and were dropped", humanize.Comma(int64(report.TimedOut)))
	}

	t, err := emit(ctx, in.Source, in.Sink, n, decide)
	if err != nil {
		return nil, err
	}
	report.Kept, report.Dropped, report.Collateral = t.kept, t.dropped, t.collateral
	report.Elapsed = time.Since(started)

	log.Infof("Dropped %s sequences", humanize.Comma(int64(report.Dropped)))
	log.Infof("%s sequences in, %s sequences out", humanize.Comma(int64(report.Total)), humanize.Comma(int64(report.Kept)))
	return report, nil
}

// sizeRun decides how many matrix rows the run needs: the caller's count, a
// count the source already knows, or a counting pass.
func sizeRun(ctx context.Context, in RunInput, log *logx.Logger) (int, error) {
	if in.Count > 0 {
		log.Infof("Using supplied count of %s records", humanize.Comma(int64(in.Count)))
		return in.Count, nil
	}
	if n, ok := in.Source.Count(); ok {
		log.Infof("Index reports %s records", humanize.Comma(int64(n)))
		return n, nil
	}
	n, err := countRecords(ctx, in.Source)
	if err != nil {
		return 0, err
	}
	log.Infof("Counted %s sequences", humanize.Comma(int64(n)))
	return n, nil
}
