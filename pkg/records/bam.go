package records

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// AlignmentSource reads BAM, or SAM when the path ends in ".sam", with
// biogo/hts. The header is read once when the source is opened.
type AlignmentSource struct {
	path   string
	isSAM  bool
	header *sam.Header
}

// OpenAlignments opens path and reads its header.
func OpenAlignments(path string) (*AlignmentSource, error) {
	s := &AlignmentSource{
		path:  path,
		isSAM: strings.HasSuffix(strings.ToLower(path), ".sam"),
	}

	it, err := s.open()
	if err != nil {
		return nil, err
	}
	s.header = it.header()
	if err := it.Close(); err != nil {
		return nil, err
	}
	return s, nil
}

// Header returns the input header.
func (s *AlignmentSource) Header() *sam.Header { return s.header }

func (s *AlignmentSource) Open() (Iterator, error) { return s.open() }

// Count reports mapped + unmapped totals from a sibling .bai index, the same
// figure samtools idxstats sums to. Without an index the count is unknown.
func (s *AlignmentSource) Count() (int, bool) {
	if s.isSAM {
		return 0, false
	}
	f, err := os.Open(s.path + ".bai")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	idx, err := bam.ReadIndex(f)
	if err != nil {
		return 0, false
	}

	var total uint64
	for i := 0; i < idx.NumRefs(); i++ {
		// References with no reads have no pseudo-bin.
		if stats, ok := idx.ReferenceStats(i); ok {
			total += stats.Mapped + stats.Unmapped
		}
	}
	if unplaced, ok := idx.Unmapped(); ok {
		total += unplaced
	}
	return int(total), true
}

type alignmentReader interface {
	Read() (*sam.Record, error)
	Header() *sam.Header
}

type alignmentIter struct {
	file   *os.File
	bgzf   *bam.Reader
	reader alignmentReader
}

func (s *AlignmentSource) open() (*alignmentIter, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}

	it := &alignmentIter{file: f}
	if s.isSAM {
		r, err := sam.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create SAM reader: %w", err)
		}
		it.reader = r
	} else {
		r, err := bam.NewReader(f, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create BAM reader: %w", err)
		}
		it.bgzf = r
		it.reader = r
	}
	return it, nil
}

func (it *alignmentIter) header() *sam.Header { return it.reader.Header() }

func (it *alignmentIter) Next() (Record, error) {
	rec, err := it.reader.Read()
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read alignment record: %w", err)
	}
	return fromSAM(rec), nil
}

func (it *alignmentIter) Close() error {
	if it.bgzf != nil {
		it.bgzf.Close()
	}
	return it.file.Close()
}

// fromSAM exposes the fields the classifier needs. Supplementary and
// secondary records usually carry no SEQ, which leaves Seq empty.
func fromSAM(rec *sam.Record) Record {
	r := Record{
		Name:     rec.Name,
		QueryLen: rec.Seq.Length,
		RefLen:   -1,
		native:   rec,
	}
	if rec.Seq.Length > 0 {
		r.Seq = rec.Seq.Expand()
	}
	if len(rec.Qual) > 0 && rec.Qual[0] != 0xff {
		r.Qual = rec.Qual
	}
	if rec.Ref != nil && rec.Flags&sam.Unmapped == 0 && len(rec.Cigar) > 0 {
		r.RefLen = rec.Len()
	}
	return r
}

// toSAM returns the record to write. Records that did not come from an
// alignment file are written as unmapped reads.
func toSAM(r Record) (*sam.Record, error) {
	if rec, ok := r.native.(*sam.Record); ok {
		return rec, nil
	}
	qual := r.Qual
	if qual != nil {
		qual = make([]byte, len(r.Qual))
		for i, q := range r.Qual {
			qual[i] = q - 33
		}
	}
	rec, err := sam.NewRecord(r.Name, nil, nil, -1, -1, 0, 0, nil, r.Seq, qual, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to convert read %s: %w", r.Name, err)
	}
	rec.Flags |= sam.Unmapped
	return rec, nil
}

// AlignmentSink writes BAM, or SAM when the path ends in ".sam". A path of
// "-" streams BAM to stdout.
type AlignmentSink struct {
	file   *os.File
	writer interface {
		Write(*sam.Record) error
	}
	bgzf *bam.Writer
	buf  *bufio.Writer
}

// CreateAlignments opens path for writing with header h.
func CreateAlignments(path string, h *sam.Header) (*AlignmentSink, error) {
	s := &AlignmentSink{}

	var w io.Writer
	if path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		s.file = f
		w = f
	}

	if strings.HasSuffix(strings.ToLower(path), ".sam") {
		s.buf = bufio.NewWriter(w)
		sw, err := sam.NewWriter(s.buf, h, sam.FlagDecimal)
		if err != nil {
			s.closeFile()
			return nil, fmt.Errorf("failed to create SAM writer: %w", err)
		}
		s.writer = sw
		return s, nil
	}

	bw, err := bam.NewWriter(w, h, 1)
	if err != nil {
		s.closeFile()
		return nil, fmt.Errorf("failed to create BAM writer: %w", err)
	}
	s.bgzf = bw
	s.writer = bw
	return s, nil
}

func (s *AlignmentSink) Write(r Record) error {
	rec, err := toSAM(r)
	if err != nil {
		return err
	}
	if err := s.writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write read %s: %w", r.Name, err)
	}
	return nil
}

func (s *AlignmentSink) Close() error {
	if s.bgzf != nil {
		if err := s.bgzf.Close(); err != nil {
			s.closeFile()
			return fmt.Errorf("failed to close BAM writer: %w", err)
		}
	}
	if s.buf != nil {
		if err := s.buf.Flush(); err != nil {
			s.closeFile()
			return fmt.Errorf("failed to flush SAM writer: %w", err)
		}
	}
	return s.closeFile()
}

func (s *AlignmentSink) closeFile() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
