//go:build gocv

package backends

import (
	"camera-ingest/pkg/media"
	"camera-ingest/pkg/media/opencv"
)

func openCV() (media.Backend, error) {
	return opencv.New(), nil
}
