package dto

import (
	"camera-ingest/entities"
	"github.com/google/uuid"
)

type IngestJobMessage struct {
	JobId           uuid.UUID `json:"jobId"`
	CameraId        string    `json:"cameraId"`
	DurationSeconds int       `json:"durationSeconds"`
	ExtractFPS      int       `json:"extractFps"`
}

type SearchRequest struct {
	Road string `json:"road"`
}

type SelectCameraRequest struct {
	Index int `json:"index"`
}

type StartRecordingRequest struct {
	DurationSeconds int `json:"durationSeconds"`
	ExtractFPS      int `json:"extractFps"`
}

type StartRecordingResponse struct {
	JobId  uuid.UUID `json:"jobId"`
	Status string    `json:"status"`
}

type ComposeRequest struct {
	Row  entities.FrameRecord `json:"row"`
	Send bool                 `json:"send"`
}

type ComposeResponse struct {
	Message string `json:"message"`
	Sent    bool   `json:"sent"`
}

type RecordingDetail struct {
	*entities.Recording
	Frames []*entities.Frame `json:"frames"`
}

// JobDetailResponse is a job together with the recordings and frames it stored.
type JobDetailResponse struct {
	*entities.Job
	Recordings []RecordingDetail `json:"recordings"`
}
