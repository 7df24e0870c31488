// Package media defines the video toolkit the recorder and extractor drive.
// Backends live in sub-packages: ffmpeg (default) and opencv (built with -tags gocv).
package media

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEndOfStream is returned by Read when the source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	ErrClosed      = errors.New("media resource closed")
)

// Props are the properties a source reports when opened. Zero values mean the
// source did not report them.
type Props struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Duration   time.Duration
}

// Frame is one decoded picture in packed BGR24 layout.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*3
}

// Source yields frames sequentially.
type Source interface {
	Props() Props
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// SeekSource is a Source that can be positioned at a time offset.
type SeekSource interface {
	Source
	Seek(offset time.Duration) error
}

// Sink receives frames and encodes them into a video file.
type Sink interface {
	Write(frame Frame) error
	Close() error
}

// Backend opens sources and sinks.
type Backend interface {
	Name() string
	OpenStream(ctx context.Context, url string) (Source, error)
	OpenFile(ctx context.Context, path string) (SeekSource, error)
	CreateVideo(ctx context.Context, path string, fps float64, width, height int) (Sink, error)
	WriteImage(path string, frame Frame) error
}
