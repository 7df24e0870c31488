// Package backends selects a media.Backend by name.
package backends

import (
	"camera-ingest/constant"
	"camera-ingest/pkg/media"
	"camera-ingest/pkg/media/ffmpeg"
	"errors"
	"fmt"
)

var ErrUnsupported = errors.New("unsupported media backend")

// New returns the backend registered under name. An empty name selects ffmpeg.
func New(name string) (media.Backend, error) {
	switch name {
	case "", constant.MediaBackendFFmpeg:
		return ffmpeg.New(), nil
	case constant.MediaBackendOpenCV:
		return openCV()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
}
