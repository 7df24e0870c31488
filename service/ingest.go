package service

import (
	"camera-ingest/constant"
	"camera-ingest/dto"
	"camera-ingest/entities"
	"camera-ingest/repository"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"time"
)

// Publisher hands an ingest job to the worker queue.
type Publisher interface {
	Publish(ctx context.Context, message dto.IngestJobMessage) error
}

type Service interface {
	Submit(ctx context.Context, cameraID string, durationSeconds, extractFPS int) (*entities.Job, error)
	Process(ctx context.Context, message dto.IngestJobMessage) error
	FindJob(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	JobDetail(ctx context.Context, id uuid.UUID) (*dto.JobDetailResponse, error)
}

type service struct {
	repo      repository.JobRepository
	directory *Directory
	pipeline  *Pipeline
	publisher Publisher
	defaults  PipelineOptions
}

func NewService(repo repository.JobRepository, directory *Directory, pipeline *Pipeline, publisher Publisher, defaults PipelineOptions) Service {
	return &service{
		repo:      repo,
		directory: directory,
		pipeline:  pipeline,
		publisher: publisher,
		defaults:  defaults,
	}
}

// Submit stores a PENDING job and publishes it. Zero values take the
// configured defaults.
func (s *service) Submit(ctx context.Context, cameraID string, durationSeconds, extractFPS int) (*entities.Job, error) {
	if durationSeconds <= 0 {
		durationSeconds = int(s.defaults.RecordDuration.Seconds())
	}
	if extractFPS <= 0 {
		extractFPS = s.defaults.ExtractFPS
	}

	job := &entities.Job{
		ID:              uuid.New(),
		CameraId:        cameraID,
		DurationSeconds: durationSeconds,
		ExtractFPS:      extractFPS,
		Status:          constant.JobStatusPending,
		JobType:         constant.JobTypeIngest,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create job")
		return nil, err
	}

	message := dto.IngestJobMessage{
		JobId:           job.ID,
		CameraId:        cameraID,
		DurationSeconds: durationSeconds,
		ExtractFPS:      extractFPS,
	}
	if err := s.publisher.Publish(ctx, message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to publish job")
		if failErr := s.repo.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			zerolog.Ctx(ctx).Error().Err(failErr).Msg("failed to update job status")
		}
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("job_id", job.ID.String()).Str("camera_id", cameraID).Msg("job submitted")
	return job, nil
}

func (s *service) FindJob(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	return s.repo.FindJobById(ctx, id)
}

// JobDetail returns the job with every recording it stored and each
// recording's frames in sequence order.
func (s *service) JobDetail(ctx context.Context, id uuid.UUID) (*dto.JobDetailResponse, error) {
	job, err := s.repo.FindJobById(ctx, id)
	if err != nil {
		return nil, err
	}

	recordings, err := s.repo.FindRecordingsByJobId(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", id.String()).Msg("failed to find recordings")
		return nil, err
	}

	detail := &dto.JobDetailResponse{
		Job:        job,
		Recordings: make([]dto.RecordingDetail, 0, len(recordings)),
	}
	for _, rec := range recordings {
		frames, err := s.repo.FindFramesByRecordingId(ctx, rec.ID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("recording_id", rec.ID.String()).Msg("failed to find frames")
			return nil, err
		}
		detail.Recordings = append(detail.Recordings, dto.RecordingDetail{Recording: rec, Frames: frames})
	}
	return detail, nil
}

func (s *service) options(message dto.IngestJobMessage) PipelineOptions {
	opts := s.defaults
	if message.DurationSeconds > 0 {
		opts.RecordDuration = time.Duration(message.DurationSeconds) * time.Second
	}
	if message.ExtractFPS > 0 {
		opts.ExtractFPS = message.ExtractFPS
	}
	jobId := message.JobId
	opts.JobId = &jobId
	return opts
}

// nonRetryable reports whether err will fail the same way on redelivery.
func nonRetryable(err error) bool {
	var (
		openErr *StreamOpenError
		nameErr *MalformedFilenameError
	)
	return errors.Is(err, ErrCameraNotFound) ||
		errors.Is(err, ErrNoVideoURL) ||
		errors.As(err, &openErr) ||
		errors.As(err, &nameErr)
}

func (s *service) Process(ctx context.Context, message dto.IngestJobMessage) (err error) {
	ctx = zerolog.Ctx(ctx).With().Str("job_id", message.JobId.String()).Logger().WithContext(ctx)
	zerolog.Ctx(ctx).Info().Str("camera_id", message.CameraId).Msg("processing job")

	job, err := s.repo.FindJobById(ctx, message.JobId)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to find job by id")
		return err
	}

	if job.Status != constant.JobStatusPending {
		zerolog.Ctx(ctx).Info().Str("status", string(job.Status)).Msg("job is not pending")
		return nil
	}

	if err := s.repo.UpdateStatusJob(ctx, constant.JobStatusProcessing, message.JobId); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to update job status")
		return err
	}

	defer func() {
		if err != nil {
			// Shutdown cancels ctx but the job must still leave PROCESSING.
			ctx := context.WithoutCancel(ctx)
			if errors.Is(err, ErrNonRetryable) {
				if updateErr := s.repo.FailJob(ctx, message.JobId, err.Error()); updateErr != nil {
					zerolog.Ctx(ctx).Error().Err(updateErr).Msg("failed to update job status")
				}
				err = nil
			} else {
				if updateErr := s.repo.UpdateStatusJob(ctx, constant.JobStatusPending, message.JobId); updateErr != nil {
					zerolog.Ctx(ctx).Error().Err(updateErr).Msg("failed to update job status")
				}
			}
		}
	}()

	camera, err := s.directory.Camera(ctx, message.CameraId)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to look up camera")
		if nonRetryable(err) {
			return errors.Join(ErrNonRetryable, err)
		}
		return err
	}

	report, err := s.pipeline.Run(ctx, camera, s.options(message))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("pipeline failed")
		if nonRetryable(err) {
			return errors.Join(ErrNonRetryable, err)
		}
		return err
	}

	if err = s.repo.SaveRecording(ctx, report.Recording, report.Frames); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to save recording")
		return errors.Join(ErrNonRetryable, fmt.Errorf("save recording %s: %w", report.Recording.FileName, err))
	}

	counts := repository.JobCounts{
		FramesCaptured: report.FramesCaptured(),
		FramesSkipped:  report.FramesSkipped(),
		UploadsFailed:  report.UploadsFailed(),
	}
	if err = s.repo.CompleteJob(ctx, message.JobId, counts); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to update job status")
		return err
	}

	zerolog.Ctx(ctx).Info().Msg(report.Summary())
	return nil
}
