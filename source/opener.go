package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	tm "github.com/gofhir/termsmap"
)

const s3Scheme = "s3://"

// ErrUnsupportedScheme is returned for URIs with a scheme other than s3.
var ErrUnsupportedScheme = errors.New("source: unsupported scheme")

// S3Config configures an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

// NewS3Client creates a MinIO client for cfg.
func NewS3Client(cfg S3Config) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, tm.NewError(tm.StatusInvalidArguments, "s3 endpoint is required")
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
}

// Location is a parsed input or output address.
type Location struct {
	Bucket string // empty for local paths
	Key    string // object key, or the local path
}

// IsRemote reports whether the location is an object store key.
func (l Location) IsRemote() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.IsRemote() {
		return s3Scheme + l.Bucket + "/" + l.Key
	}
	return l.Key
}

// Parse splits uri into a Location. Empty input is StatusInvalidArguments.
func Parse(uri string) (Location, error) {
	if strings.TrimSpace(uri) == "" {
		return Location{}, tm.NewError(tm.StatusInvalidArguments, "bad filepath @ %s", uri)
	}
	rest, ok := strings.CutPrefix(uri, s3Scheme)
	if !ok {
		if scheme, _, found := strings.Cut(uri, "://"); found && !strings.ContainsAny(scheme, `/\`) {
			return Location{}, &tm.Error{Status: tm.StatusInvalidArguments, Message: uri, Err: ErrUnsupportedScheme}
		}
		return Location{Key: uri}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, tm.NewError(tm.StatusInvalidArguments, "bad filepath @ %s", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Join appends name to a directory location.
func Join(dir, name string) string {
	if strings.HasPrefix(dir, s3Scheme) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

// Base returns the last element of a location.
func Base(uri string) string {
	if rest, ok := strings.CutPrefix(uri, s3Scheme); ok {
		if i := strings.LastIndexByte(rest, '/'); i >= 0 {
			return rest[i+1:]
		}
		return rest
	}
	return filepath.Base(uri)
}

// Opener resolves locations to readers and writers.
type Opener struct {
	s3 *minio.Client
}

// Option configures an Opener.
type Option func(*Opener)

// WithS3Client enables s3:// locations.
func WithS3Client(client *minio.Client) Option {
	return func(o *Opener) {
		o.s3 = client
	}
}

// NewOpener creates an Opener.
func NewOpener(opts ...Option) *Opener {
	o := &Opener{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open opens uri for reading and decompresses it if needed.
//
// Errors carry StatusInvalidArguments for unusable locations,
// StatusFileNotFound for missing inputs and StatusFileInit otherwise.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	var raw io.ReadCloser
	if loc.IsRemote() {
		raw, err = o.openObject(ctx, loc)
	} else {
		raw, err = openFile(loc.Key)
	}
	if err != nil {
		return nil, err
	}

	rc, _, err := Decompress(raw)
	if err != nil {
		_ = raw.Close()
		return nil, &tm.Error{Status: tm.StatusFileInit, Message: fmt.Sprintf("%s: %v", uri, err), Err: err}
	}
	return rc, nil
}

// Lines opens uri and returns a line reader over it.
func (o *Opener) Lines(ctx context.Context, uri string) (*Lines, error) {
	rc, err := o.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	return NewLines(rc), nil
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err == nil {
		if st, serr := f.Stat(); serr == nil && st.IsDir() {
			_ = f.Close()
			return nil, tm.NewError(tm.StatusInvalidArguments, "bad filepath @ %s", path)
		}
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &tm.Error{Status: tm.StatusFileNotFound, Message: path, Err: err}
	}
	return nil, &tm.Error{Status: tm.StatusFileInit, Message: path, Err: err}
}

func (o *Opener) openObject(ctx context.Context, loc Location) (io.ReadCloser, error) {
	if o.s3 == nil {
		return nil, tm.NewError(tm.StatusInvalidArguments, "no s3 client configured for %s", loc)
	}
	if _, err := o.s3.StatObject(ctx, loc.Bucket, loc.Key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, &tm.Error{Status: tm.StatusFileNotFound, Message: loc.String(), Err: err}
		}
		return nil, &tm.Error{Status: tm.StatusFileInit, Message: loc.String(), Err: err}
	}
	obj, err := o.s3.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &tm.Error{Status: tm.StatusFileInit, Message: loc.String(), Err: err}
	}
	return obj, nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket"
}

// Create opens uri for writing. Local parent directories must exist.
// Remote writes are streamed and complete on Close.
func (o *Opener) Create(ctx context.Context, uri string) (io.WriteCloser, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	if !loc.IsRemote() {
		f, err := os.Create(loc.Key)
		if err != nil {
			return nil, tm.NewError(tm.StatusInvalidArguments, "bad filepath @ %s", uri)
		}
		return f, nil
	}
	if o.s3 == nil {
		return nil, tm.NewError(tm.StatusInvalidArguments, "no s3 client configured for %s", loc)
	}

	pr, pw := io.Pipe()
	w := &objectWriter{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := o.s3.PutObject(ctx, loc.Bucket, loc.Key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

type objectWriter struct {
	pw       *io.PipeWriter
	done     chan error
	finished atomic.Bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *objectWriter) Close() error {
	if !w.finished.CompareAndSwap(false, true) {
		return errors.New("source: writer already closed")
	}
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
