package service

import (
	"camera-ingest/entities"
	"camera-ingest/pkg/media"
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"os"
	"path/filepath"
	"time"
)

type ExtractResult struct {
	Name       RecordingName
	Frames     []entities.FrameRecord
	ImagePaths []string
	Attempted  int
	Skipped    int
	Errors     []error
}

type Extractor struct {
	backend    media.Backend
	scratchDir string
}

func NewExtractor(backend media.Backend, scratchDir string) *Extractor {
	return &Extractor{backend: backend, scratchDir: scratchDir}
}

// TargetOffsets returns the evenly spaced sample offsets i/fps for
// i in [0, fps*seconds).
func TargetOffsets(framesPerSecond, durationSeconds int) []time.Duration {
	if framesPerSecond <= 0 || durationSeconds <= 0 {
		return nil
	}
	total := framesPerSecond * durationSeconds
	offsets := make([]time.Duration, 0, total)
	for i := range total {
		offsets = append(offsets, time.Duration(i)*time.Second/time.Duration(framesPerSecond))
	}
	return offsets
}

// Extract samples the recording at framesPerSecond over durationSeconds,
// writes one JPEG per captured frame and returns the metadata rows in
// capture order. Offsets that cannot be read are skipped.
func (e *Extractor) Extract(ctx context.Context, rec *entities.Recording, camera entities.Camera, framesPerSecond, durationSeconds int) (*ExtractResult, error) {
	if framesPerSecond <= 0 || durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: extraction needs positive fps and duration, got %d and %d", ErrNonRetryable, framesPerSecond, durationSeconds)
	}

	name, err := ParseRecordingName(rec.FileName)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("recording", rec.FileName).Logger()
	if name.CameraID != camera.ID {
		logger.Warn().Str("camera_id", camera.ID).Str("file_camera_id", name.CameraID).Msg("recording belongs to a different camera id")
	}

	if err := os.MkdirAll(e.scratchDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	src, err := e.backend.OpenFile(ctx, rec.Path)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open recording")
		return nil, &StreamOpenError{Target: rec.Path, Err: err}
	}
	defer src.Close()

	result := &ExtractResult{Name: name}
	for _, offset := range TargetOffsets(framesPerSecond, durationSeconds) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++

		path, err := e.capture(ctx, src, name, offset, len(result.Frames)+1)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, err)
			logger.Warn().Err(err).Msg("failed to grab frame, skipping")
			continue
		}

		result.ImagePaths = append(result.ImagePaths, path)
		result.Frames = append(result.Frames, entities.FrameRecord{
			FrameName:  name.FrameName(len(result.Frames) + 1),
			CameraName: camera.Name,
			Latitude:   camera.Latitude,
			Longitude:  camera.Longitude,
			Timestamp:  name.Timestamp,
		})
		logger.Debug().Str("image", path).Msg("frame extracted")
	}

	logger.Info().
		Int("attempted", result.Attempted).
		Int("captured", len(result.Frames)).
		Int("skipped", result.Skipped).
		Msg("frame extraction finished")

	return result, nil
}

func (e *Extractor) capture(ctx context.Context, src media.SeekSource, name RecordingName, offset time.Duration, sequence int) (string, error) {
	if err := src.Seek(offset); err != nil {
		return "", &FrameReadError{Offset: offset.Seconds(), Err: err}
	}
	frame, err := src.Read(ctx)
	if err != nil {
		return "", &FrameReadError{Offset: offset.Seconds(), Err: err}
	}

	path := filepath.Join(e.scratchDir, name.ImageName(sequence))
	if err := e.backend.WriteImage(path, frame); err != nil {
		return "", &FrameReadError{Offset: offset.Seconds(), Err: fmt.Errorf("write %s: %w", path, err)}
	}
	return path, nil
}
