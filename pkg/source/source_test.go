package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/mojoframe/pkg/errors"
)

type fakeS3 struct {
	objects map[string][]byte
	uploads map[string][]byte
	failPut error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, uploads: map[string][]byte{}}
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, stderrors.New("NotFound")
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.failPut != nil {
		return nil, f.failPut
	}
	f.uploads[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &manager.UploadOutput{}, nil
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri  string
		want Location
		err  bool
	}{
		{uri: "-", want: Location{Scheme: SchemeStdio}},
		{uri: "", want: Location{Scheme: SchemeStdio}},
		{uri: "data/in.csv", want: Location{Scheme: SchemeFile, Path: "data/in.csv"}},
		{uri: "file:///tmp/in.csv", want: Location{Scheme: SchemeFile, Path: "/tmp/in.csv"}},
		{uri: "s3://bucket/dir/in.csv.gz", want: Location{Scheme: SchemeS3, Bucket: "bucket", Path: "dir/in.csv.gz"}},
		{uri: "gs://bucket/in.csv", want: Location{Scheme: SchemeGCS, Bucket: "bucket", Path: "in.csv"}},
		{uri: "s3://bucket/", err: true},
		{uri: "ftp://host/in.csv", err: true},
	}
	for _, tt := range tests {
		got, err := ParseLocation(tt.uri)
		if tt.err {
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), tt.uri)
			continue
		}
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.want, got, tt.uri)
	}
}

func TestLocalFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	o := NewOpener(Options{})
	defer o.Close()

	for _, name := range []string{"out.csv", "out.csv.gz", "out.csv.zst", "out.csv.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			w, err := o.Create(ctx, path)
			require.NoError(t, err)
			_, err = io.WriteString(w, "v\n1\n2\n")
			require.NoError(t, err)
			require.NoError(t, w.Close())

			info, err := os.Stat(path)
			require.NoError(t, err)

			in, err := o.Open(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, info.Size(), in.SizeHint)
			data, err := io.ReadAll(in)
			require.NoError(t, err)
			require.NoError(t, in.Close())
			assert.Equal(t, "v\n1\n2\n", string(data))
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	o := NewOpener(Options{})
	_, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.True(t, errors.IsStructural(err))
}

func TestStdio(t *testing.T) {
	var stdout bytes.Buffer
	o := NewOpener(Options{Stdin: strings.NewReader("a\n1\n"), Stdout: &stdout})

	in, err := o.Open(context.Background(), "-")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), in.SizeHint)
	data, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))

	w, err := o.Create(context.Background(), "-")
	require.NoError(t, err)
	_, _ = io.WriteString(w, "v\n")
	require.NoError(t, w.Close())
	assert.Equal(t, "v\n", stdout.String())
}

func TestS3(t *testing.T) {
	fake := newFakeS3()
	fake.objects["bucket/in.csv"] = []byte("a,b\n1,2\n")
	o := NewOpener(Options{S3Client: fake, S3Uploader: fake})
	ctx := context.Background()

	in, err := o.Open(ctx, "s3://bucket/in.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(8), in.SizeHint)
	data, err := io.ReadAll(in)
	require.NoError(t, err)
	require.NoError(t, in.Close())
	assert.Equal(t, "a,b\n1,2\n", string(data))

	_, err = o.Open(ctx, "s3://bucket/missing.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	w, err := o.Create(ctx, "s3://bucket/out/scores.csv")
	require.NoError(t, err)
	_, err = io.WriteString(w, "v\n5\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "v\n5\n", string(fake.uploads["bucket/out/scores.csv"]))
}

func TestS3UploadFailure(t *testing.T) {
	fake := newFakeS3()
	fake.failPut = stderrors.New("access denied")
	o := NewOpener(Options{S3Client: fake, S3Uploader: fake})

	w, err := o.Create(context.Background(), "s3://bucket/out.csv")
	require.NoError(t, err)
	_, err = io.WriteString(w, "v\n")
	require.NoError(t, err)
	err = w.Close()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
