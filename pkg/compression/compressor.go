// Package compression provides transparent streaming compression for CSV
// inputs and outputs. The algorithm is chosen from the file extension, so
// "scores.csv.zst" is read through a zstd decoder and "out.csv.gz" is
// written through a gzip encoder.
//
// # Basic Usage
//
//	alg := compression.Detect(path)
//	r, err := compression.NewReader(file, alg)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
// # Algorithm Selection
//
// Speed (fastest to slowest): LZ4 > Snappy/S2 > Zstd > Gzip/Deflate
// Compression ratio (best to worst): Zstd > Gzip/Deflate > Snappy/S2 > LZ4
package compression

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

var extensions = map[string]Algorithm{
	".gz":      Gzip,
	".gzip":    Gzip,
	".zst":     Zstd,
	".zstd":    Zstd,
	".lz4":     LZ4,
	".sz":      Snappy,
	".snappy":  Snappy,
	".s2":      S2,
	".deflate": Deflate,
}

// Detect returns the algorithm implied by the extension of path, or None.
func Detect(path string) Algorithm {
	if alg, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return alg
	}
	return None
}

// ParseAlgorithm resolves an algorithm name. The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	switch alg {
	case "":
		return None, nil
	case None, Gzip, Snappy, LZ4, Zstd, S2, Deflate:
		return alg, nil
	}
	return None, fmt.Errorf("unsupported compression algorithm: %s", name)
}

// NewReader wraps r so that reads return decompressed bytes. Closing the
// returned reader does not close r.
func NewReader(r io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case Deflate:
		return flate.NewReader(r), nil
	}
	return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
}

// NewWriter wraps w so that written bytes are compressed. Close flushes the
// compressed stream but does not close w.
func NewWriter(w io.Writer, alg Algorithm, level Level) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, clampLevel(level))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		return gw, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdLevel(level))))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return enc, nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(lz4Level(level))); err != nil {
			return nil, fmt.Errorf("failed to configure lz4 writer: %w", err)
		}
		return lw, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case S2:
		switch {
		case level >= Best:
			return s2.NewWriter(w, s2.WriterBestCompression()), nil
		case level >= Better:
			return s2.NewWriter(w, s2.WriterBetterCompression()), nil
		}
		return s2.NewWriter(w), nil
	case Deflate:
		fw, err := flate.NewWriter(w, clampLevel(level))
		if err != nil {
			return nil, fmt.Errorf("failed to create deflate writer: %w", err)
		}
		return fw, nil
	}
	return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func clampLevel(level Level) int {
	switch {
	case level < Fastest:
		return int(Default)
	case level > Best:
		return int(Best)
	}
	return int(level)
}

// zstdLevel maps 1..9 onto the zstd range 1..19.
func zstdLevel(level Level) int {
	return clampLevel(level)*2 - 1
}

func lz4Level(level Level) lz4.CompressionLevel {
	switch clampLevel(level) {
	case 1, 2:
		return lz4.Fast
	case 3:
		return lz4.Level3
	case 4:
		return lz4.Level4
	case 5:
		return lz4.Level5
	case 6:
		return lz4.Level6
	case 7:
		return lz4.Level7
	case 8:
		return lz4.Level8
	}
	return lz4.Level9
}
