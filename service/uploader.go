package service

import (
	"camera-ingest/constant"
	"context"
	"fmt"
	"github.com/cenkalti/backoff/v5"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ObjectStore is the subset of *minio.Client the uploader needs.
type ObjectStore interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type UploaderConfig struct {
	Bucket          string
	BufferPrefix    string
	InferencePrefix string
	CachePrefix     string
	MetadataKeyMode constant.MetadataKeyMode
	// Retries is the number of attempts per file. 0 and 1 both mean a single attempt.
	Retries     uint
	Concurrency int
}

type Uploader struct {
	store ObjectStore
	cfg   UploaderConfig
}

func NewUploader(store ObjectStore, cfg UploaderConfig) *Uploader {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MetadataKeyMode == "" {
		cfg.MetadataKeyMode = constant.MetadataKeyTimestamped
	}
	return &Uploader{store: store, cfg: cfg}
}

func (u *Uploader) Bucket() string {
	return u.cfg.Bucket
}

func (u *Uploader) BufferKey(fileName string) string {
	return u.cfg.BufferPrefix + fileName
}

func (u *Uploader) InferenceKey(fileName string) string {
	return u.cfg.InferencePrefix + fileName
}

func (u *Uploader) CacheKey(fileName string) string {
	return u.cfg.CachePrefix + fileName
}

// MetadataKey is where a recording's metadata table is stored. The fixed
// mode reproduces the single well-known key, which each run overwrites.
func (u *Uploader) MetadataKey(name RecordingName) string {
	if u.cfg.MetadataKeyMode == constant.MetadataKeyFixed {
		return u.cfg.InferencePrefix + LegacyMetadataName
	}
	return u.cfg.InferencePrefix + name.MetadataName()
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".csv":
		return "text/csv"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// Upload copies one local file to key in the configured bucket.
func (u *Uploader) Upload(ctx context.Context, localPath, key string) error {
	if _, err := os.Stat(localPath); err != nil {
		return &UploadError{LocalPath: localPath, Bucket: u.cfg.Bucket, Key: key, Err: err}
	}

	operation := func() (minio.UploadInfo, error) {
		return u.store.FPutObject(ctx, u.cfg.Bucket, key, localPath, minio.PutObjectOptions{
			ContentType: contentType(localPath),
		})
	}

	var err error
	if u.cfg.Retries <= 1 {
		_, err = operation()
	} else {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 200 * time.Millisecond
		bo.MaxInterval = 5 * time.Second
		_, err = backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(u.cfg.Retries))
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file", localPath).Str("key", key).Msg("upload failed")
		return &UploadError{LocalPath: localPath, Bucket: u.cfg.Bucket, Key: key, Err: err}
	}

	zerolog.Ctx(ctx).Debug().Str("file", localPath).Str("key", key).Msg("uploaded")
	return nil
}

type FrameUpload struct {
	LocalPath    string
	BufferKey    string
	InferenceKey string
	BufferErr    error
	InferenceErr error
}

func (f FrameUpload) OK() bool {
	return f.BufferErr == nil && f.InferenceErr == nil
}

type UploadSummary struct {
	Succeeded int
	Failed    int
	Errors    []error
	Frames    []FrameUpload
}

func (s *UploadSummary) record(err error) {
	if err != nil {
		s.Failed++
		s.Errors = append(s.Errors, err)
		return
	}
	s.Succeeded++
}

// UploadFrames copies every frame to the buffer and inference prefixes. A
// failed upload never stops the remaining ones. Frames in the summary keep
// the order of paths.
func (u *Uploader) UploadFrames(ctx context.Context, paths []string) UploadSummary {
	frames := make([]FrameUpload, len(paths))
	sem := make(chan struct{}, u.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		name := filepath.Base(path)
		frames[i] = FrameUpload{
			LocalPath:    path,
			BufferKey:    u.BufferKey(name),
			InferenceKey: u.InferenceKey(name),
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(f *FrameUpload) {
			defer wg.Done()
			defer func() { <-sem }()
			f.BufferErr = u.Upload(ctx, f.LocalPath, f.BufferKey)
			f.InferenceErr = u.Upload(ctx, f.LocalPath, f.InferenceKey)
		}(&frames[i])
	}
	wg.Wait()

	summary := UploadSummary{Frames: frames}
	for _, f := range frames {
		summary.record(f.BufferErr)
		summary.record(f.InferenceErr)
	}

	zerolog.Ctx(ctx).Info().
		Int("frames", len(paths)).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("frame uploads finished")

	return summary
}

// UploadRecording copies the clip to the cache prefix and returns its key.
func (u *Uploader) UploadRecording(ctx context.Context, localPath string) (string, error) {
	key := u.CacheKey(filepath.Base(localPath))
	if err := u.Upload(ctx, localPath, key); err != nil {
		return "", err
	}
	return key, nil
}

// UploadMetadata copies the metadata table to its key and returns the key.
func (u *Uploader) UploadMetadata(ctx context.Context, localPath string, name RecordingName) (string, error) {
	key := u.MetadataKey(name)
	if err := u.Upload(ctx, localPath, key); err != nil {
		return "", err
	}
	zerolog.Ctx(ctx).Info().Str("uri", fmt.Sprintf("s3://%s/%s", u.cfg.Bucket, key)).Msg("metadata uploaded")
	return key, nil
}
