package service

import (
	"errors"
	"fmt"
)

var (
	ErrNonRetryable        = errors.New("non-retryable error")
	ErrRecordingInProgress = errors.New("a recording is already running for this camera")
	ErrNoCameraSelected    = errors.New("no camera selected")
	ErrCameraNotFound      = errors.New("camera not found")
	ErrNoVideoURL          = errors.New("camera has no video url")
)

// StreamOpenError means a stream or recording could not be opened. It ends
// the attempt and is not retried.
type StreamOpenError struct {
	Target string
	Err    error
}

func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Target, e.Err)
}

func (e *StreamOpenError) Unwrap() error {
	return e.Err
}

// FrameReadError is a single failed grab. The frame is skipped.
type FrameReadError struct {
	Offset float64
	Err    error
}

func (e *FrameReadError) Error() string {
	return fmt.Sprintf("read frame at %.3fs: %v", e.Offset, e.Err)
}

func (e *FrameReadError) Unwrap() error {
	return e.Err
}

// UploadError is one failed object upload.
type UploadError struct {
	LocalPath string
	Bucket    string
	Key       string
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s to %s/%s: %v", e.LocalPath, e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// MalformedFilenameError is returned for names that do not follow the
// recording or frame naming convention.
type MalformedFilenameError struct {
	Name   string
	Reason string
}

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("malformed filename %q: %s", e.Name, e.Reason)
}

// DateParseError is returned by the composer for a malformed timestamp.
type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("parse date %q: %v", e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}
