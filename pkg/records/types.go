// Package records adapts sequence file codecs to the restartable record
// source and append-only sink the screening pipeline consumes.
package records

import "io"

// Record is one read as seen by the screening pipeline. The codec-specific
// value it was decoded from travels with it so a sink can write it back
// byte-for-byte.
type Record struct {
	Name string // read identifier; mates share it
	Seq  []byte
	Qual []byte // as stored by the codec: ASCII for FASTQ, raw phred for BAM; nil when absent

	// RefLen is the number of reference bases the record's own alignment
	// spans, or -1 when the record is unaligned or carries no alignment.
	RefLen int
	// QueryLen is the stored query length, or -1 when the format has none.
	QueryLen int

	native any
}

// Native returns the codec value the record was decoded from, if any.
func (r Record) Native() any { return r.native }

// Iterator yields records in file order. Next returns io.EOF after the last
// record.
type Iterator interface {
	Next() (Record, error)
	Close() error
}

// Source is a restartable record stream: every Open starts again from the
// first record.
type Source interface {
	Open() (Iterator, error)
	// Count reports the number of records when it is known without a full
	// pass, e.g. from a BAM index.
	Count() (n int, ok bool)
}

// Sink accepts records to write, in order.
type Sink interface {
	Write(Record) error
	Close() error
}

// Memory is an in-memory Source, mainly for tests and small inputs.
type Memory struct {
	Records []Record
}

func (m *Memory) Open() (Iterator, error) { return &memoryIter{recs: m.Records}, nil }

func (m *Memory) Count() (int, bool) { return len(m.Records), true }

type memoryIter struct {
	recs []Record
	next int
}

func (it *memoryIter) Next() (Record, error) {
	if it.next >= len(it.recs) {
		return Record{}, io.EOF
	}
	r := it.recs[it.next]
	it.next++
	return r, nil
}

func (it *memoryIter) Close() error { return nil }

// Collect is a Sink that keeps everything written to it.
type Collect struct {
	Records []Record
	Closed  bool
}

func (c *Collect) Write(r Record) error {
	c.Records = append(c.Records, r)
	return nil
}

func (c *Collect) Close() error {
	c.Closed = true
	return nil
}

// Names returns the identifiers written so far, in order.
func (c *Collect) Names() []string {
	names := make([]string, len(c.Records))
	for i, r := range c.Records {
		names[i] = r.Name
	}
	return names
}
