// Package source opens CSV inputs and creates CSV outputs by URI.
//
// Supported locations:
//
//	-                    stdin / stdout
//	path/to/file.csv     local file
//	file:///abs/path     local file
//	s3://bucket/key      Amazon S3
//	gs://bucket/object   Google Cloud Storage
//
// Compression is transparent: a location ending in a known compression
// extension (see package compression) is decoded on read and encoded on
// write.
package source

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/mojoframe/pkg/compression"
	"github.com/ajitpratap0/mojoframe/pkg/errors"
)

// Schemes understood by Open and Create.
const (
	SchemeStdio = "stdio"
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
)

// Input is an opened, decompressed input stream.
type Input struct {
	io.ReadCloser
	// SizeHint is the stored size in bytes, or -1 when unknown. For
	// compressed inputs it is the compressed size.
	SizeHint int64
	// Location is the URI the input was opened from.
	Location string
}

// S3API is the subset of the S3 client used for reading.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Uploader streams an object body to S3.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Options configures an Opener.
type Options struct {
	AWSRegion          string
	GCSCredentialsFile string
	// CompressionLevel applies to compressed outputs.
	CompressionLevel compression.Level
	Logger           *zap.Logger

	// Overrides, mostly for tests.
	Stdin      io.Reader
	Stdout     io.Writer
	S3Client   S3API
	S3Uploader S3Uploader
}

// Opener resolves locations. Cloud clients are created on first use.
type Opener struct {
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	s3       S3API
	uploader S3Uploader
	gcs      *storage.Client
}

// NewOpener creates an Opener.
func NewOpener(opts Options) *Opener {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = compression.Default
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{
		opts:     opts,
		logger:   logger,
		s3:       opts.S3Client,
		uploader: opts.S3Uploader,
	}
}

// Location is a parsed URI.
type Location struct {
	Scheme string
	Bucket string
	// Path is the object key for cloud schemes and the file path otherwise.
	Path string
}

// ParseLocation splits uri into scheme, bucket and path.
func ParseLocation(uri string) (Location, error) {
	if uri == "" || uri == "-" {
		return Location{Scheme: SchemeStdio}, nil
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: SchemeFile, Path: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid location").WithDetail("location", uri)
	}
	switch u.Scheme {
	case SchemeFile:
		return Location{Scheme: SchemeFile, Path: u.Path}, nil
	case SchemeS3, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.Newf(errors.ErrorTypeConfig, "location %q needs a bucket and an object", uri)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Path: key}, nil
	}
	return Location{}, errors.Newf(errors.ErrorTypeConfig, "unsupported location scheme %q", u.Scheme)
}

// Open opens uri for reading.
func (o *Opener) Open(ctx context.Context, uri string) (*Input, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}

	var (
		raw  io.ReadCloser
		size int64 = -1
	)
	switch loc.Scheme {
	case SchemeStdio:
		raw = io.NopCloser(o.opts.Stdin)
	case SchemeFile:
		raw, size, err = openFile(loc.Path)
	case SchemeS3:
		raw, size, err = o.openS3(ctx, loc)
	case SchemeGCS:
		raw, size, err = o.openGCS(ctx, loc)
	}
	if err != nil {
		return nil, err
	}

	alg := compression.Detect(uri)
	dec, err := compression.NewReader(raw, alg)
	if err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decompress input").WithDetail("location", uri)
	}
	o.logger.Debug("input opened",
		zap.String("location", uri),
		zap.String("scheme", loc.Scheme),
		zap.Int64("size", size),
		zap.String("compression", string(alg)))
	return &Input{ReadCloser: &stackedReader{Reader: dec, closers: []io.Closer{dec, raw}}, SizeHint: size, Location: uri}, nil
}

// Create opens uri for writing. The returned writer must be closed to
// flush compression and finish cloud uploads.
func (o *Opener) Create(ctx context.Context, uri string) (io.WriteCloser, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}

	var raw io.WriteCloser
	switch loc.Scheme {
	case SchemeStdio:
		raw = nopWriteCloser{o.opts.Stdout}
	case SchemeFile:
		f, ferr := os.Create(loc.Path) //nolint:gosec // G304: path comes from the operator
		if ferr != nil {
			return nil, errors.Wrap(ferr, errors.ErrorTypeFile, "failed to create output file").WithDetail("path", loc.Path)
		}
		raw = f
	case SchemeS3:
		raw, err = o.createS3(ctx, loc)
	case SchemeGCS:
		raw, err = o.createGCS(ctx, loc)
	}
	if err != nil {
		return nil, err
	}

	enc, err := compression.NewWriter(raw, compression.Detect(uri), o.opts.CompressionLevel)
	if err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to compress output").WithDetail("location", uri)
	}
	return &stackedWriter{Writer: enc, closers: []io.Closer{enc, raw}}, nil
}

// Close releases cloud clients.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gcs != nil {
		err := o.gcs.Close()
		o.gcs = nil
		return err
	}
	return nil
}

func openFile(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input file").WithDetail("path", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat input file").WithDetail("path", path)
	}
	size := info.Size()
	if !info.Mode().IsRegular() {
		size = -1
	}
	return f, size, nil
}

func (o *Opener) s3Clients(ctx context.Context) (S3API, S3Uploader, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.s3 != nil && o.uploader != nil {
		return o.s3, o.uploader, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(o.opts.AWSRegion))
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}
	client := s3.NewFromConfig(cfg)
	if o.s3 == nil {
		o.s3 = client
	}
	if o.uploader == nil {
		o.uploader = manager.NewUploader(client)
	}
	return o.s3, o.uploader, nil
}

func (o *Opener) openS3(ctx context.Context, loc Location) (io.ReadCloser, int64, error) {
	client, _, err := o.s3Clients(ctx)
	if err != nil {
		return nil, 0, err
	}

	size := int64(-1)
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Path),
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat S3 object").
			WithDetail("bucket", loc.Bucket).
			WithDetail("key", loc.Path)
	}
	if head.ContentLength != nil {
		size = *head.ContentLength
	}

	obj, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Path),
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to read S3 object").
			WithDetail("bucket", loc.Bucket).
			WithDetail("key", loc.Path)
	}
	return obj.Body, size, nil
}

func (o *Opener) createS3(ctx context.Context, loc Location) (io.WriteCloser, error) {
	_, uploader, err := o.s3Clients(ctx)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(loc.Bucket),
			Key:         aws.String(loc.Path),
			Body:        pr,
			ContentType: aws.String("text/csv"),
		})
		_ = pr.CloseWithError(err)
		done <- err
	}()
	return &uploadWriter{pw: pw, done: done, loc: loc}, nil
}

func (o *Opener) gcsClient(ctx context.Context) (*storage.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gcs != nil {
		return o.gcs, nil
	}
	var opts []option.ClientOption
	if o.opts.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.opts.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create GCS client")
	}
	o.gcs = client
	return client, nil
}

func (o *Opener) openGCS(ctx context.Context, loc Location) (io.ReadCloser, int64, error) {
	client, err := o.gcsClient(ctx)
	if err != nil {
		return nil, 0, err
	}
	obj := client.Bucket(loc.Bucket).Object(loc.Path)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat GCS object").
			WithDetail("bucket", loc.Bucket).
			WithDetail("object", loc.Path)
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeFile, "failed to read GCS object").
			WithDetail("bucket", loc.Bucket).
			WithDetail("object", loc.Path)
	}
	return r, attrs.Size, nil
}

func (o *Opener) createGCS(ctx context.Context, loc Location) (io.WriteCloser, error) {
	client, err := o.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	w := client.Bucket(loc.Bucket).Object(loc.Path).NewWriter(ctx)
	w.ContentType = "text/csv"
	return w, nil
}

// uploadWriter feeds an S3 upload running in the background.
type uploadWriter struct {
	pw   *io.PipeWriter
	done chan error
	loc  Location
	err  error
	once sync.Once
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *uploadWriter) Close() error {
	w.once.Do(func() {
		_ = w.pw.Close()
		if err := <-w.done; err != nil {
			w.err = errors.Wrap(err, errors.ErrorTypeFile, "failed to upload S3 object").
				WithDetail("bucket", w.loc.Bucket).
				WithDetail("key", w.loc.Path)
		}
	})
	return w.err
}

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (r *stackedReader) Close() error {
	var err error
	for _, c := range r.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// stackedWriter closes the compressor before the sink underneath it.
type stackedWriter struct {
	io.Writer
	closers []io.Closer
}

func (w *stackedWriter) Close() error {
	var err error
	for _, c := range w.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
