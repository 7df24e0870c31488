package entities

import (
	"github.com/google/uuid"
	"time"
)

// FrameRecord is one row of the metadata table.
type FrameRecord struct {
	FrameName  string  `json:"frame_name"`
	CameraName string  `json:"camera_name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timestamp  string  `json:"timestamp"`
}

// Frame is the persisted form of a FrameRecord together with its upload keys.
type Frame struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RecordingId  uuid.UUID `json:"recording_id" gorm:"type:uuid;not null;index:idx_frames_recording_id"`
	Sequence     int       `json:"sequence" gorm:"not null"`
	FrameName    string    `json:"frame_name" gorm:"type:varchar(255);not null;uniqueIndex"`
	CameraName   string    `json:"camera_name" gorm:"type:varchar(255)"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    string    `json:"timestamp" gorm:"type:varchar(19)"`
	BufferKey    *string   `json:"buffer_key" gorm:"type:varchar(500)"`
	InferenceKey *string   `json:"inference_key" gorm:"type:varchar(500)"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Frame) TableName() string {
	return "frames"
}
