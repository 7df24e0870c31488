package repository

import (
	"camera-ingest/constant"
	"camera-ingest/entities"
	"context"
	"database/sql"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// JobCounts are the totals written on a finished job.
type JobCounts struct {
	FramesCaptured int
	FramesSkipped  int
	UploadsFailed  int
}

type JobRepository interface {
	Transaction(ctx context.Context, callback func(repo JobRepository) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB
	Migrate(ctx context.Context) error
	CreateJob(ctx context.Context, job *entities.Job) error
	FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	UpdateStatusJob(ctx context.Context, status constant.JobStatus, id uuid.UUID) error
	FailJob(ctx context.Context, id uuid.UUID, message string) error
	CompleteJob(ctx context.Context, id uuid.UUID, counts JobCounts) error
	SaveRecording(ctx context.Context, recording *entities.Recording, frames []entities.Frame) error
	FindRecordingsByJobId(ctx context.Context, jobId uuid.UUID) ([]*entities.Recording, error)
	FindFramesByRecordingId(ctx context.Context, recordingId uuid.UUID) ([]*entities.Frame, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) (JobRepository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	if err != nil {
		return nil, err
	}
	return &repo{
		db: gormDB,
	}, nil
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&entities.Job{}, &entities.Recording{}, &entities.Frame{})
}

func (r *repo) Transaction(ctx context.Context, callback func(repo JobRepository) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(&repo{db: tx})
	}, opts...)
}

func (r *repo) CreateJob(ctx context.Context, job *entities.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	job := &entities.Job{}
	err := r.db.WithContext(ctx).First(job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (r *repo) UpdateStatusJob(ctx context.Context, status constant.JobStatus, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entities.Job{}).Where("id = ?", id).Update("status", status).Error
}

func (r *repo) FailJob(ctx context.Context, id uuid.UUID, message string) error {
	updates := map[string]interface{}{
		"status":        constant.JobStatusFailed,
		"error_message": message,
	}
	return r.db.WithContext(ctx).Model(&entities.Job{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) CompleteJob(ctx context.Context, id uuid.UUID, counts JobCounts) error {
	updates := map[string]interface{}{
		"status":          constant.JobStatusCompleted,
		"frames_captured": counts.FramesCaptured,
		"frames_skipped":  counts.FramesSkipped,
		"uploads_failed":  counts.UploadsFailed,
	}
	return r.db.WithContext(ctx).Model(&entities.Job{}).Where("id = ?", id).Updates(updates).Error
}

// SaveRecording stores the recording and its frames in one transaction.
func (r *repo) SaveRecording(ctx context.Context, recording *entities.Recording, frames []entities.Frame) error {
	return r.Transaction(ctx, func(tx JobRepository) error {
		db := tx.GetDB()
		if err := db.Create(recording).Error; err != nil {
			return err
		}
		if len(frames) == 0 {
			return nil
		}
		return db.CreateInBatches(frames, 100).Error
	})
}

func (r *repo) FindRecordingsByJobId(ctx context.Context, jobId uuid.UUID) ([]*entities.Recording, error) {
	var recordings []*entities.Recording
	err := r.db.WithContext(ctx).Where("job_id = ?", jobId).Order("created_at ASC").Find(&recordings).Error
	if err != nil {
		return nil, err
	}
	return recordings, nil
}

func (r *repo) FindFramesByRecordingId(ctx context.Context, recordingId uuid.UUID) ([]*entities.Frame, error) {
	var frames []*entities.Frame
	err := r.db.WithContext(ctx).Where("recording_id = ?", recordingId).Order("sequence ASC").Find(&frames).Error
	if err != nil {
		return nil, err
	}
	return frames, nil
}
