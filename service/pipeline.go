package service

import (
	"camera-ingest/entities"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"os"
	"path/filepath"
	"time"
)

type PipelineOptions struct {
	RecordDuration time.Duration
	ExtractFPS     int
	ExtractSeconds int
	JobId          *uuid.UUID
}

type PipelineConfig struct {
	ScratchDir string
	KeepLocal  bool
}

// Report is the outcome of one Run. It is returned even when Run fails after
// the recording was written.
type Report struct {
	Recording    *entities.Recording
	RecordingKey string
	RecordingErr error

	Extraction *ExtractResult
	Uploads    UploadSummary

	MetadataPath string
	MetadataKey  string
	MetadataErr  error

	Frames  []entities.Frame
	Removed []string
}

func (r *Report) FramesCaptured() int {
	if r.Extraction == nil {
		return 0
	}
	return len(r.Extraction.Frames)
}

func (r *Report) FramesSkipped() int {
	if r.Extraction == nil {
		return 0
	}
	return r.Extraction.Skipped
}

func (r *Report) UploadsFailed() int {
	failed := r.Uploads.Failed
	if r.RecordingErr != nil {
		failed++
	}
	if r.MetadataErr != nil {
		failed++
	}
	return failed
}

func (r *Report) Summary() string {
	if r.Recording == nil {
		return "Recording failed."
	}
	return fmt.Sprintf("Recording complete. Video saved as %s. Frames captured: %d, skipped: %d. Failed uploads: %d.",
		r.Recording.FileName, r.FramesCaptured(), r.FramesSkipped(), r.UploadsFailed())
}

type Pipeline struct {
	recorder  *Recorder
	extractor *Extractor
	uploader  *Uploader
	cfg       PipelineConfig
}

func NewPipeline(recorder *Recorder, extractor *Extractor, uploader *Uploader, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		recorder:  recorder,
		extractor: extractor,
		uploader:  uploader,
		cfg:       cfg,
	}
}

// Run records the camera, uploads the clip, extracts frames, uploads them to
// both prefixes and finally writes and uploads the metadata table. Upload
// failures are counted in the report and never abort the run.
func (p *Pipeline) Run(ctx context.Context, camera entities.Camera, opts PipelineOptions) (*Report, error) {
	logger := zerolog.Ctx(ctx).With().Str("camera_id", camera.ID).Logger()
	ctx = logger.WithContext(ctx)

	report := &Report{}

	logger.Info().Dur("duration", opts.RecordDuration).Msg("recording")
	rec, err := p.recorder.Record(ctx, camera, opts.RecordDuration)
	if err != nil {
		return report, err
	}
	rec.JobId = opts.JobId
	report.Recording = rec

	key, err := p.uploader.UploadRecording(ctx, rec.Path)
	if err != nil {
		report.RecordingErr = err
	} else {
		rec.ObjectKey = key
		report.RecordingKey = key
	}

	logger.Info().Int("fps", opts.ExtractFPS).Int("seconds", opts.ExtractSeconds).Msg("extracting frames")
	extraction, err := p.extractor.Extract(ctx, rec, camera, opts.ExtractFPS, opts.ExtractSeconds)
	if err != nil {
		return report, err
	}
	report.Extraction = extraction

	report.Uploads = p.uploader.UploadFrames(ctx, extraction.ImagePaths)

	report.MetadataPath = filepath.Join(p.cfg.ScratchDir, extraction.Name.MetadataName())
	if err := SaveMetadata(report.MetadataPath, extraction.Frames); err != nil {
		report.MetadataErr = fmt.Errorf("write metadata: %w", err)
		logger.Error().Err(err).Str("file", report.MetadataPath).Msg("failed to write metadata")
	} else if key, err := p.uploader.UploadMetadata(ctx, report.MetadataPath, extraction.Name); err != nil {
		report.MetadataErr = err
	} else {
		report.MetadataKey = key
	}

	report.Frames = buildFrames(rec.ID, extraction.Frames, report.Uploads.Frames)

	if !p.cfg.KeepLocal {
		report.Removed = p.cleanup(ctx, report)
	}

	logger.Info().
		Int("captured", report.FramesCaptured()).
		Int("skipped", report.FramesSkipped()).
		Int("uploads_failed", report.UploadsFailed()).
		Msg("pipeline finished")

	return report, nil
}

func buildFrames(recordingId uuid.UUID, rows []entities.FrameRecord, uploads []FrameUpload) []entities.Frame {
	frames := make([]entities.Frame, 0, len(rows))
	for i, row := range rows {
		frame := entities.Frame{
			ID:          uuid.New(),
			RecordingId: recordingId,
			Sequence:    i + 1,
			FrameName:   row.FrameName,
			CameraName:  row.CameraName,
			Latitude:    row.Latitude,
			Longitude:   row.Longitude,
			Timestamp:   row.Timestamp,
		}
		if i < len(uploads) {
			if uploads[i].BufferErr == nil {
				key := uploads[i].BufferKey
				frame.BufferKey = &key
			}
			if uploads[i].InferenceErr == nil {
				key := uploads[i].InferenceKey
				frame.InferenceKey = &key
			}
		}
		frames = append(frames, frame)
	}
	return frames
}

// cleanup removes local artifacts whose uploads all succeeded.
func (p *Pipeline) cleanup(ctx context.Context, report *Report) []string {
	var candidates []string
	if report.RecordingErr == nil {
		candidates = append(candidates, report.Recording.Path)
	}
	for _, f := range report.Uploads.Frames {
		if f.OK() {
			candidates = append(candidates, f.LocalPath)
		}
	}
	if report.MetadataErr == nil && report.MetadataPath != "" {
		candidates = append(candidates, report.MetadataPath)
	}

	removed := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("file", path).Msg("failed to remove local file")
			continue
		}
		removed = append(removed, path)
	}
	return removed
}
