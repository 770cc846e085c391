package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := map[string]Algorithm{
		"scores.csv":           None,
		"scores.csv.gz":        Gzip,
		"/data/SCORES.CSV.GZ":  Gzip,
		"scores.csv.zst":       Zstd,
		"scores.csv.lz4":       LZ4,
		"scores.csv.sz":        Snappy,
		"scores.csv.s2":        S2,
		"scores.csv.deflate":   Deflate,
		"s3://bucket/x.csv.gz": Gzip,
		"-":                    None,
	}
	for path, want := range tests {
		assert.Equal(t, want, Detect(path), path)
	}
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, alg)

	alg, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, alg)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("a,b,c\n1,2.5,true\n", 500))

	for _, alg := range []Algorithm{None, Gzip, Zstd, LZ4, Snappy, S2, Deflate} {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(alg), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, alg, level)
				require.NoError(t, err)
				_, err = w.Write(original)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if alg != None {
					assert.Less(t, buf.Len(), len(original))
				}

				r, err := NewReader(&buf, alg)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, original, got)
			})
		}
	}
}

func TestUnsupported(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), Algorithm("brotli"))
	assert.Error(t, err)
	_, err = NewWriter(io.Discard, Algorithm("brotli"), Default)
	assert.Error(t, err)
}

func TestCorruptGzip(t *testing.T) {
	_, err := NewReader(strings.NewReader("not gzip"), Gzip)
	assert.Error(t, err)
}
