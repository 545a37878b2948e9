package records

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Reads are passed through untouched; lowercase and IUPAC codes are the
// aligner's business.
func init() { seq.ValidateSeq = false }

// fastxHeader is the full header line of a FASTX record, kept so the sink
// can write the record back exactly as it was read.
type fastxHeader string

// FastxSource reads FASTA or FASTQ, plain or compressed, through
// shenwei356/bio. Its record count is never known up front.
type FastxSource struct {
	path string
}

func OpenFastx(path string) *FastxSource { return &FastxSource{path: path} }

func (s *FastxSource) Open() (Iterator, error) {
	r, err := fastx.NewReader(nil, s.path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	return &fastxIter{reader: r}, nil
}

func (s *FastxSource) Count() (int, bool) { return 0, false }

type fastxIter struct {
	reader *fastx.Reader
}

func (it *fastxIter) Next() (Record, error) {
	rec, err := it.reader.Read()
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read sequence record: %w", err)
	}

	// The reader may reuse its buffers between calls.
	r := Record{
		Name:     string(rec.ID),
		Seq:      append([]byte(nil), rec.Seq.Seq...),
		QueryLen: len(rec.Seq.Seq),
		RefLen:   -1,
		native:   fastxHeader(rec.Name),
	}
	if len(rec.Seq.Qual) > 0 {
		r.Qual = append([]byte(nil), rec.Seq.Qual...)
	}
	return r, nil
}

func (it *fastxIter) Close() error {
	it.reader.Close()
	return nil
}

// FastxSink writes FASTQ for records with qualities and FASTA otherwise.
// Output is compressed according to the path suffix; "-" writes to stdout.
type FastxSink struct {
	file *os.File
	zw   io.WriteCloser
	buf  *bufio.Writer
}

// CreateFastx opens path for writing. Level is passed to the compressor.
func CreateFastx(path string, level int) (*FastxSink, error) {
	s := &FastxSink{}

	var w io.Writer = os.Stdout
	c := Plain
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		s.file = f
		w = f
		c = CompressionFor(path)
	}

	zw, err := compressWriter(w, c, level)
	if err != nil {
		s.closeFile()
		return nil, err
	}
	s.zw = zw
	s.buf = bufio.NewWriterSize(zw, 1<<20)
	return s, nil
}

func (s *FastxSink) Write(r Record) error {
	header := r.Name
	if h, ok := r.native.(fastxHeader); ok && h != "" {
		header = string(h)
	}

	var err error
	if r.Qual != nil {
		_, err = fmt.Fprintf(s.buf, "@%s\n%s\n+\n%s\n", header, r.Seq, r.Qual)
	} else {
		_, err = fmt.Fprintf(s.buf, ">%s\n%s\n", header, r.Seq)
	}
	if err != nil {
		return fmt.Errorf("failed to write read %s: %w", r.Name, err)
	}
	return nil
}

func (s *FastxSink) Close() error {
	if err := s.buf.Flush(); err != nil {
		s.closeFile()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := s.zw.Close(); err != nil {
		s.closeFile()
		return fmt.Errorf("failed to finish compressed stream: %w", err)
	}
	return s.closeFile()
}

func (s *FastxSink) closeFile() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
