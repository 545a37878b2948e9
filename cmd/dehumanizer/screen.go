package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/SamStudio8/dehumanizer/internal/logx"
	"github.com/SamStudio8/dehumanizer/pkg/align/kmer"
	"github.com/SamStudio8/dehumanizer/pkg/records"
	"github.com/SamStudio8/dehumanizer/pkg/screen"
	"github.com/SamStudio8/dehumanizer/pkg/storage"
)

var (
	bamInput      bool
	fastxInput    bool
	preset        string
	cleanPath     string
	logPath       string
	threads       int
	readCount     int
	minID         float64
	minLen        float64
	noBreak       bool
	blockRep      int
	trashMinAlen  float64
	knownPath     string
	pgDate        string
	itemTimeout   time.Duration
	queueDepth    int
	configPath    string
	showConfig    bool
	showProgress  bool
	quiet         bool
	compressLevel int
)

var screenCmd = &cobra.Command{
	Use:   "screen <manifest> <dirty>",
	Short: "Remove reads that match contaminant references",
	Long: `Screen reads against every manifest reference for a preset and write the
reads that match none of them.

Input:
  --fastx  FASTA/FASTQ, plain or compressed. A read is dropped when any
           reference accepts a hit.
  --bam    BAM (or SAM with a .sam suffix). Records are screened in three
           passes: hits, then trash (--trash-minalen) and known-bad names
           (--known), and finally mates of anything dropped are dropped too.
  Use "-" as <dirty> to read stdin; it is spooled to a temporary file
  because screening re-reads the input.

Hit acceptance:
  With neither --minlen nor --minid every hit counts. For FASTX a single
  threshold decides and with both set both must pass. For BAM thresholds
  apply only when both are set, and then a hit passing either one counts.

Output:
  -o names the clean output (stdout by default). FASTX output ending in .gz
  or .zst is compressed. BAM output gets a @PG line for this run.
  The audit log defaults to <dirty>.dehumanizer.log.txt and may be an
  s3:// location, as may the manifest, --known and --config.

Examples:
  dehumanizer screen manifest.txt reads.fq.gz --fastx --preset sr -o clean.fq.gz
  dehumanizer screen manifest.txt sample.bam --bam --preset sr \
    --known bad_reads.txt --trash-minalen 25 -o sample.clean.bam
  samtools view -b in.bam | dehumanizer screen manifest.txt - --bam --preset sr -o out.bam`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreen(cmd, args[0], args[1])
	},
}

func init() {
	f := screenCmd.Flags()
	f.BoolVar(&bamInput, "bam", false, "Input is BAM/SAM")
	f.BoolVar(&fastxInput, "fastx", false, "Input is FASTA/FASTQ")
	f.StringVar(&preset, "preset", "", "Aligner preset; selects manifest references")
	f.StringVarP(&cleanPath, "clean", "o", "-", "Clean output path")
	f.StringVar(&logPath, "log", "", "Audit log path [default <dirty>.dehumanizer.log.txt]")
	f.IntVarP(&threads, "threads", "t", 0, "Number of screening workers (0 = auto-detect performance cores)")
	f.IntVarP(&readCount, "count", "n", 0, "Number of reads; skips counting and caps the run")
	f.Float64Var(&minID, "minid", 0, "Min % identity (matches / block length) to accept a hit [use all hits]")
	f.Float64Var(&minLen, "minlen", 0, "Min % of the read aligned to accept a hit [use all hits]")
	f.BoolVar(&noBreak, "nobreak", false, "Do not stop at the first reference with a hit (FASTX survey mode)")
	f.IntVar(&blockRep, "blockrep", 100000, "Report progress after every block of N reads")
	f.Float64Var(&trashMinAlen, "trash-minalen", 0, "Trash BAM records whose alignment covers less than this % of the read")
	f.StringVar(&knownPath, "known", "", "Newline-delimited read names known to be bad (BAM only)")
	f.StringVar(&pgDate, "pg-date", "", "Date for the BAM @PG ID [default today, YYYYMMDD]")
	f.DurationVar(&itemTimeout, "item-timeout", 0, "Drop a read whose screening takes longer than this (0 = no limit)")
	f.IntVar(&queueDepth, "queue-depth", 5000, "Queued reads per worker")
	f.StringVar(&configPath, "config", "", "TOML file with default settings; flags override it")
	f.BoolVar(&showConfig, "show-config", false, "Show the effective configuration and exit")
	f.BoolVar(&showProgress, "progress", false, "Show a progress bar while reads are queued")
	f.BoolVarP(&quiet, "quiet", "q", false, "Only print warnings and failures")
	f.IntVar(&compressLevel, "compress-level", 2, "FASTX output compression level: 1 fastest, 2 default, 3 best")

	screenCmd.MarkFlagsMutuallyExclusive("bam", "fastx")
	screenCmd.MarkFlagsOneRequired("bam", "fastx")
	screenCmd.MarkFlagRequired("preset")
}

// buildConfig layers flags over the config file over machine defaults.
func buildConfig(ctx context.Context, cmd *cobra.Command) (*screen.Config, error) {
	cfg := screen.NewConfig()
	if configPath != "" {
		if err := requireLocation(ctx, "config file", configPath); err != nil {
			return nil, err
		}
		data, err := storage.ReadLocation(ctx, configPath)
		if err != nil {
			return nil, &screen.ConfigError{Msg: "failed to read config " + configPath, Err: err}
		}
		if err := cfg.LoadFile(data); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("threads") && threads > 0 {
		cfg.Workers = threads
	}
	if f.Changed("queue-depth") {
		cfg.QueueDepth = queueDepth
	}
	if f.Changed("blockrep") {
		cfg.BlockReport = blockRep
	}
	if f.Changed("nobreak") {
		cfg.BreakFirst = !noBreak
	}
	if f.Changed("minid") {
		cfg.MinID = minID
	}
	if f.Changed("minlen") {
		cfg.MinLen = minLen
	}
	if f.Changed("trash-minalen") {
		cfg.TrashMinLen = trashMinAlen
	}
	if f.Changed("item-timeout") {
		cfg.ItemTimeout = itemTimeout
	}
	if f.Changed("compress-level") {
		cfg.CompressionLevel = compressLevel
	}
	return cfg, cfg.Validate()
}

func runScreen(cmd *cobra.Command, manifestPath, dirty string) error {
	ctx := cmd.Context()

	cfg, err := buildConfig(ctx, cmd)
	if err != nil {
		return err
	}
	if showConfig {
		cfg.ShowConfig()
		return nil
	}

	log := logx.New(nil)
	log.SetQuiet(quiet)

	mode := screen.ModeReads
	if bamInput {
		mode = screen.ModeAlignments
	}
	if mode == screen.ModeReads {
		if cfg.TrashMinLen > 0 {
			log.Warnf("--trash-minalen is ignored for FASTX input")
		}
		if knownPath != "" {
			log.Warnf("--known is ignored for FASTX input")
		}
	} else {
		if !cfg.BreakFirst {
			log.Warnf("--nobreak is ignored for BAM input")
		}
		if (cfg.MinLen > 0) != (cfg.MinID > 0) {
			log.Warnf("BAM input needs both --minlen and --minid to filter hits; every hit counts")
		}
	}

	if err := requireLocation(ctx, "manifest", manifestPath); err != nil {
		return err
	}
	if mode == screen.ModeAlignments && knownPath != "" {
		if err := requireLocation(ctx, "known list", knownPath); err != nil {
			return err
		}
	}
	auditPath := auditLocation(dirty)
	if exists, err := storage.ExistsLocation(ctx, auditPath); err != nil {
		return &screen.ConfigError{Msg: "failed to check audit log " + auditPath, Err: err}
	} else if exists {
		log.Warnf("Audit log %s exists and will be overwritten", auditPath)
	}

	data, err := storage.ReadLocation(ctx, manifestPath)
	if err != nil {
		return &screen.ConfigError{Msg: "failed to read manifest " + manifestPath, Err: err}
	}
	entries, err := screen.ParseManifest(data)
	if err != nil {
		return err
	}
	refs, err := screen.LoadReferences(entries, preset, kmer.NewLoader())
	if err != nil {
		return err
	}
	defer refs.Close()
	log.Notef("Detected %d references in manifest for preset=%s", refs.Len(), preset)

	var badNames map[string]struct{}
	if mode == screen.ModeAlignments && knownPath != "" {
		data, err := storage.ReadLocation(ctx, knownPath)
		if err != nil {
			return &screen.IOError{Op: "read known list", Path: knownPath, Err: err}
		}
		if badNames, err = records.ReadNameSet(bytes.NewReader(data)); err != nil {
			return &screen.IOError{Op: "read known list", Path: knownPath, Err: err}
		}
		log.Infof("Loaded %s known bad read names", humanize.Comma(int64(len(badNames))))
	}

	input := dirty
	if dirty == "-" {
		base := "stdin.fastx"
		if mode == screen.ModeAlignments {
			base = "stdin.bam"
		}
		spool, err := records.SpoolReader(os.Stdin, cfg.TempDir, base)
		if err != nil {
			return &screen.IOError{Op: "spool stdin", Err: err}
		}
		defer spool.Remove()
		log.Infof("Spooled %s of stdin to %s", humanize.IBytes(uint64(spool.Bytes)), spool.Path)
		input = spool.Path
	}

	src, sink, err := openStreams(mode, input, cfg)
	if err != nil {
		return err
	}

	var bar *progressBar
	if showProgress {
		bar = newProgressBar()
	}

	rep, runErr := screen.Run(ctx, screen.RunInput{
		Name:       cleanPath,
		Mode:       mode,
		Source:     src,
		Sink:       sink,
		References: refs,
		Config:     cfg,
		Count:      readCount,
		BadNames:   badNames,
		Log:        log,
		Progress:   bar.update,
	})
	bar.finish(runErr == nil)
	closeErr := sink.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return &screen.IOError{Op: "close output", Path: cleanPath, Err: closeErr}
	}

	var audit bytes.Buffer
	if err := screen.WriteAudit(&audit, refs.Names(), rep); err != nil {
		return err
	}
	if err := storage.WriteLocation(ctx, auditPath, audit.Bytes()); err != nil {
		return &screen.IOError{Op: "write audit log", Path: auditPath, Err: err}
	}

	log.Infof("Run %s finished in %s: %s in, %s dropped (%s hits, %s trash, %s known, %s collateral, %s timed out), %s out",
		rep.RunID, rep.Elapsed.Round(time.Millisecond),
		humanize.Comma(int64(rep.Total)), humanize.Comma(int64(rep.Dropped)),
		humanize.Comma(int64(rep.Hits)), humanize.Comma(int64(rep.Trash)),
		humanize.Comma(int64(rep.Known)), humanize.Comma(int64(rep.Collateral)),
		humanize.Comma(int64(rep.TimedOut)), humanize.Comma(int64(rep.Kept)))
	log.Infof("Audit log written to %s", auditPath)
	return nil
}

// auditLocation is --log, or a name derived from the dirty input.
func auditLocation(dirty string) string {
	if logPath != "" {
		return logPath
	}
	if dirty == "-" {
		return "stdin.dehumanizer.log.txt"
	}
	return dirty + ".dehumanizer.log.txt"
}

// requireLocation turns a missing side file into a ConfigError before any
// reference is loaded.
func requireLocation(ctx context.Context, what, location string) error {
	ok, err := storage.ExistsLocation(ctx, location)
	if err != nil {
		return &screen.ConfigError{Msg: "failed to check " + what + " " + location, Err: err}
	}
	if !ok {
		return &screen.ConfigError{Msg: what + " " + location + " does not exist"}
	}
	return nil
}

func openStreams(mode screen.Mode, input string, cfg *screen.Config) (records.Source, records.Sink, error) {
	if mode == screen.ModeReads {
		sink, err := records.CreateFastx(cleanPath, cfg.CompressionLevel)
		if err != nil {
			return nil, nil, &screen.IOError{Op: "create output", Path: cleanPath, Err: err}
		}
		return records.OpenFastx(input), sink, nil
	}

	src, err := records.OpenAlignments(input)
	if err != nil {
		return nil, nil, &screen.IOError{Op: "open input", Path: input, Err: err}
	}
	date := pgDate
	if date == "" {
		date = time.Now().Format("20060102")
	}
	header, err := records.WithProgram(src.Header(), version, strings.Join(os.Args, " "), date)
	if err != nil {
		return nil, nil, err
	}
	sink, err := records.CreateAlignments(cleanPath, header)
	if err != nil {
		return nil, nil, &screen.IOError{Op: "create output", Path: cleanPath, Err: err}
	}
	return src, sink, nil
}

// progressBar tracks queued reads. A nil bar does nothing.
type progressBar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newProgressBar() *progressBar {
	p := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(0,
		mpb.PrependDecorators(
			decor.Name("queued reads: ", decor.WC{W: len("queued reads: "), C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.AverageETA(decor.ET_STYLE_GO),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return &progressBar{p: p, bar: bar}
}

func (b *progressBar) update(done, total int) {
	if b == nil {
		return
	}
	if done == 1 {
		b.bar.SetTotal(int64(total), false)
	}
	if done%1024 == 0 || done == total {
		b.bar.SetCurrent(int64(done))
	}
}

func (b *progressBar) finish(ok bool) {
	if b == nil {
		return
	}
	if ok {
		b.bar.SetTotal(-1, true)
	} else {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
