package entities

import (
	"github.com/google/uuid"
	"time"
)

// Recording is a finished clip written by the recorder.
type Recording struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	JobId         *uuid.UUID `json:"job_id" gorm:"type:uuid;index:idx_recordings_job_id"`
	CameraId      string     `json:"camera_id" gorm:"type:varchar(100);not null"`
	FileName      string     `json:"file_name" gorm:"type:varchar(255);not null"`
	Path          string     `json:"-" gorm:"-"`
	ObjectKey     string     `json:"object_key" gorm:"type:varchar(500)"`
	Timestamp     string     `json:"timestamp" gorm:"type:varchar(19);not null"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	FPS           float64    `json:"fps"`
	FramesWritten int        `json:"frames_written"`
	Duration      float64    `json:"duration_seconds"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (Recording) TableName() string {
	return "recordings"
}
