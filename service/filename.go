package service

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampLayout is the capture timestamp embedded in every file name.
	TimestampLayout = "2006-01-02_15-04-05"
	DateLayout      = "2006-01-02"

	RecordingExt       = "mp4"
	ImageExt           = "jpg"
	fieldSeparator     = "_"
	sequenceMarker     = "_im"
	metadataSuffix     = "_frames_metadata.csv"
	LegacyMetadataName = "frames_metadata.csv"
)

// RecordingName identifies a recording by camera and capture time.
type RecordingName struct {
	CameraID  string
	Timestamp string
	Ext       string
}

func NewRecordingName(cameraID string, capturedAt time.Time) RecordingName {
	return RecordingName{
		CameraID:  cameraID,
		Timestamp: capturedAt.Format(TimestampLayout),
		Ext:       RecordingExt,
	}
}

// String renders {camera_id}_{YYYY-MM-DD}_{HH-MM-SS}.{ext}.
func (r RecordingName) String() string {
	return fmt.Sprintf("%s%s%s.%s", r.CameraID, fieldSeparator, r.Timestamp, r.Ext)
}

// FrameName renders {camera_id}_{timestamp}_im{sequence}, without extension.
func (r RecordingName) FrameName(sequence int) string {
	return fmt.Sprintf("%s%s%s%s%d", r.CameraID, fieldSeparator, r.Timestamp, sequenceMarker, sequence)
}

func (r RecordingName) ImageName(sequence int) string {
	return r.FrameName(sequence) + "." + ImageExt
}

func (r RecordingName) MetadataName() string {
	return r.CameraID + fieldSeparator + r.Timestamp + metadataSuffix
}

// ParseRecordingName validates a recording file name. The date and time are
// taken from the last two fields so camera ids may contain the separator.
func ParseRecordingName(name string) (RecordingName, error) {
	base := filepath.Base(name)
	dot := strings.LastIndex(base, ".")
	if dot <= 0 || dot == len(base)-1 {
		return RecordingName{}, &MalformedFilenameError{Name: base, Reason: "missing extension"}
	}

	cameraID, timestamp, err := splitStem(base[:dot])
	if err != nil {
		return RecordingName{}, &MalformedFilenameError{Name: base, Reason: err.Error()}
	}

	return RecordingName{CameraID: cameraID, Timestamp: timestamp, Ext: base[dot+1:]}, nil
}

// FrameNameParts are the fields recovered from a frame name.
type FrameNameParts struct {
	CameraID  string
	Timestamp string
	Sequence  int
}

// ParseFrameName splits {camera_id}_{timestamp}_im{sequence}[.jpg].
func ParseFrameName(name string) (FrameNameParts, error) {
	stem := strings.TrimSuffix(filepath.Base(name), "."+ImageExt)
	marker := strings.LastIndex(stem, sequenceMarker)
	if marker < 0 {
		return FrameNameParts{}, &MalformedFilenameError{Name: name, Reason: "missing _im sequence"}
	}

	seq, err := strconv.Atoi(stem[marker+len(sequenceMarker):])
	if err != nil || seq < 1 {
		return FrameNameParts{}, &MalformedFilenameError{Name: name, Reason: "sequence is not a positive integer"}
	}

	cameraID, timestamp, err := splitStem(stem[:marker])
	if err != nil {
		return FrameNameParts{}, &MalformedFilenameError{Name: name, Reason: err.Error()}
	}

	return FrameNameParts{CameraID: cameraID, Timestamp: timestamp, Sequence: seq}, nil
}

func splitStem(stem string) (cameraID, timestamp string, err error) {
	fields := strings.Split(stem, fieldSeparator)
	if len(fields) < 3 {
		return "", "", fmt.Errorf("want {camera_id}_{date}_{time}, got %d fields", len(fields))
	}

	n := len(fields)
	cameraID = strings.Join(fields[:n-2], fieldSeparator)
	if cameraID == "" {
		return "", "", fmt.Errorf("empty camera id")
	}

	timestamp = fields[n-2] + fieldSeparator + fields[n-1]
	if _, err := time.Parse(TimestampLayout, timestamp); err != nil {
		return "", "", fmt.Errorf("timestamp %q is not %s", timestamp, TimestampLayout)
	}
	return cameraID, timestamp, nil
}
