package records

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is the codec chosen for a FASTX output from its file name.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

// CompressionFor picks the codec from the path suffix.
func CompressionFor(path string) Compression {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".gz"):
		return Gzip
	case strings.HasSuffix(p, ".zst"), strings.HasSuffix(p, ".zstd"):
		return Zstd
	default:
		return Plain
	}
}

// compressWriter wraps w with the codec for path. Level follows the usual
// 1 (fastest) .. 3 (best) scale; anything else selects the codec default.
func compressWriter(w io.Writer, c Compression, level int) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		gzLevel := gzip.DefaultCompression
		switch level {
		case 1:
			gzLevel = gzip.BestSpeed
		case 3:
			gzLevel = gzip.BestCompression
		}
		zw, err := gzip.NewWriterLevel(w, gzLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		return zw, nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return zw, nil
	default:
		return nopWriteCloser{w}, nil
	}
}

func zstdLevel(level int) zstd.EncoderLevel {
	switch level {
	case 1:
		return zstd.SpeedFastest
	case 3:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
