package entities

import (
	"camera-ingest/constant"
	"github.com/google/uuid"
	"time"
)

type Job struct {
	ID              uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	CameraId        string             `json:"camera_id" gorm:"type:varchar(100);not null;index:idx_jobs_camera_id"`
	DurationSeconds int                `json:"duration_seconds"`
	ExtractFPS      int                `json:"extract_fps"`
	Status          constant.JobStatus `json:"status" gorm:"type:varchar(20);not null"`
	JobType         constant.JobType   `json:"job_type" gorm:"type:varchar(20);not null"`
	ErrorMessage    *string            `json:"error_message" gorm:"type:text"`
	FramesCaptured  int                `json:"frames_captured"`
	FramesSkipped   int                `json:"frames_skipped"`
	UploadsFailed   int                `json:"uploads_failed"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}
