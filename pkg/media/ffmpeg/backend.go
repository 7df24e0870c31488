// Package ffmpeg implements media.Backend on top of the ffmpeg and ffprobe binaries.
package ffmpeg

import (
	"camera-ingest/constant"
	"camera-ingest/pkg/media"
	"time"
)

type Backend struct {
	FFmpegPath   string
	FFprobePath  string
	ProbeTimeout time.Duration
}

var _ media.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
		ProbeTimeout: 20 * time.Second,
	}
}

func (b *Backend) Name() string {
	return constant.MediaBackendFFmpeg
}

func (b *Backend) WriteImage(path string, frame media.Frame) error {
	return media.WriteJPEG(path, frame)
}
