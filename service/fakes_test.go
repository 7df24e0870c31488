package service

import (
	"camera-ingest/entities"
	"camera-ingest/pkg/media"
	"context"
	"errors"
	"fmt"
	"github.com/minio/minio-go/v7"
	"os"
	"sync"
	"time"
)

func testFrame() media.Frame {
	return media.Frame{Width: 4, Height: 2, Pix: make([]byte, 4*2*3)}
}

// fakeBackend plays a synthetic stream and a synthetic recording.
type fakeBackend struct {
	props         media.Props
	streamFrames  int
	block         bool
	openStreamErr error

	fileDuration time.Duration
	failOffsets  map[time.Duration]bool
	openFileErr  error

	mu         sync.Mutex
	openedFile int
	sinks      []*fakeSink
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) OpenStream(_ context.Context, _ string) (media.Source, error) {
	if b.openStreamErr != nil {
		return nil, b.openStreamErr
	}
	return &fakeStream{props: b.props, remaining: b.streamFrames, block: b.block}, nil
}

func (b *fakeBackend) OpenFile(_ context.Context, path string) (media.SeekSource, error) {
	b.mu.Lock()
	b.openedFile++
	b.mu.Unlock()
	if b.openFileErr != nil {
		return nil, b.openFileErr
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &fakeFile{duration: b.fileDuration, fail: b.failOffsets}, nil
}

func (b *fakeBackend) CreateVideo(_ context.Context, path string, fps float64, width, height int) (media.Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	sink := &fakeSink{file: f, fps: fps, width: width, height: height}
	b.mu.Lock()
	b.sinks = append(b.sinks, sink)
	b.mu.Unlock()
	return sink, nil
}

func (b *fakeBackend) WriteImage(path string, frame media.Frame) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}
	return os.WriteFile(path, frame.Pix, 0o644)
}

type fakeStream struct {
	props     media.Props
	remaining int
	block     bool
}

func (s *fakeStream) Props() media.Props { return s.props }

func (s *fakeStream) Read(ctx context.Context) (media.Frame, error) {
	if s.block {
		<-ctx.Done()
		return media.Frame{}, ctx.Err()
	}
	if s.remaining <= 0 {
		return media.Frame{}, media.ErrEndOfStream
	}
	s.remaining--
	return testFrame(), nil
}

func (s *fakeStream) Close() error { return nil }

type fakeFile struct {
	duration time.Duration
	fail     map[time.Duration]bool
	offset   time.Duration
}

func (f *fakeFile) Props() media.Props {
	return media.Props{Width: 4, Height: 2, FPS: 20, Duration: f.duration}
}

func (f *fakeFile) Seek(offset time.Duration) error {
	f.offset = offset
	return nil
}

func (f *fakeFile) Read(context.Context) (media.Frame, error) {
	if f.offset >= f.duration {
		return media.Frame{}, media.ErrEndOfStream
	}
	if f.fail[f.offset] {
		return media.Frame{}, fmt.Errorf("corrupt frame at %s", f.offset)
	}
	return testFrame(), nil
}

func (f *fakeFile) Close() error { return nil }

type fakeSink struct {
	file          *os.File
	fps           float64
	width, height int
	written       int
	closed        bool
}

func (s *fakeSink) Write(frame media.Frame) error {
	s.written++
	_, err := s.file.Write(frame.Pix)
	return err
}

func (s *fakeSink) Close() error {
	s.closed = true
	return s.file.Close()
}

// fakeStore records uploads and fails for keys in failKeys.
type fakeStore struct {
	mu       sync.Mutex
	keys     []string
	paths    map[string]string
	contents map[string][]byte
	failKeys map[string]bool
	// failures is how many calls fail before the store starts succeeding.
	failures int
	calls    int
}

func (s *fakeStore) FPutObject(_ context.Context, bucket, key, path string, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return minio.UploadInfo{}, errors.New("connection reset")
	}
	if s.failKeys[key] {
		return minio.UploadInfo{}, fmt.Errorf("access denied for %s", key)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if s.paths == nil {
		s.paths = map[string]string{}
		s.contents = map[string][]byte{}
	}
	s.keys = append(s.keys, key)
	s.paths[key] = path
	s.contents[key] = data
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

// object returns the local path and bytes uploaded under key.
func (s *fakeStore) object(key string) (string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.paths[key]
	return path, s.contents[key], ok
}

func (s *fakeStore) uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

type fakeDirectory struct {
	cameras []entities.Camera
	signs   []entities.Sign
	err     error
}

func (f *fakeDirectory) GetCameras(context.Context) ([]entities.Camera, error) {
	return f.cameras, f.err
}

func (f *fakeDirectory) GetSigns(context.Context) ([]entities.Sign, error) {
	return f.signs, f.err
}

var fixedNow = time.Date(2024, 10, 13, 4, 36, 59, 0, time.UTC)

func testCamera() entities.Camera {
	return entities.Camera{
		ID:        "42",
		Name:      "Waterford Lakes",
		Roadway:   "SR-408",
		Direction: "Eastbound",
		Latitude:  28.57,
		Longitude: -81.17,
		VideoURL:  "https://example.test/42/playlist.m3u8",
	}
}
