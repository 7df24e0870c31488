//go:build !gocv

package backends

import (
	"camera-ingest/constant"
	"camera-ingest/pkg/media"
	"fmt"
)

func openCV() (media.Backend, error) {
	return nil, fmt.Errorf("%w: %q needs a build with -tags gocv", ErrUnsupported, constant.MediaBackendOpenCV)
}
