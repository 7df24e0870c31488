package service

import (
	"camera-ingest/entities"
	"camera-ingest/pkg/media"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultFPS is used when a stream reports no usable frame rate.
const DefaultFPS = 20.0

type RecorderState int

const (
	StateIdle RecorderState = iota
	StateOpening
	StateRecording
	StateClosed
)

func (s RecorderState) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateRecording:
		return "recording"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

func (s RecorderState) active() bool {
	return s == StateOpening || s == StateRecording
}

type RecorderConfig struct {
	ScratchDir string
	DefaultFPS float64
	// Grace is added to the requested duration to form the hard wall clock
	// ceiling of one recording.
	Grace    time.Duration
	Location *time.Location
	Now      func() time.Time
}

type Recorder struct {
	backend media.Backend
	cfg     RecorderConfig

	mu     sync.Mutex
	states map[string]RecorderState
}

func NewRecorder(backend media.Backend, cfg RecorderConfig) *Recorder {
	if cfg.DefaultFPS <= 0 {
		cfg.DefaultFPS = DefaultFPS
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		backend: backend,
		cfg:     cfg,
		states:  make(map[string]RecorderState),
	}
}

// ResolveFPS returns reported when it is a usable rate, fallback otherwise.
func ResolveFPS(reported, fallback float64) float64 {
	if math.IsNaN(reported) || math.IsInf(reported, 0) || reported <= 0 {
		return fallback
	}
	return reported
}

func (r *Recorder) State(cameraID string) RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[cameraID]
}

func (r *Recorder) begin(cameraID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[cameraID].active() {
		return ErrRecordingInProgress
	}
	r.states[cameraID] = StateOpening
	return nil
}

func (r *Recorder) setState(cameraID string, state RecorderState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[cameraID] = state
}

// Record captures up to duration of video from the camera's stream into the
// scratch directory. A failed read ends the recording early and keeps what
// was written.
func (r *Recorder) Record(ctx context.Context, camera entities.Camera, duration time.Duration) (*entities.Recording, error) {
	if camera.VideoURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoVideoURL, camera.ID)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("recording duration must be positive, got %s", duration)
	}

	if err := r.begin(camera.ID); err != nil {
		return nil, err
	}
	defer r.setState(camera.ID, StateClosed)

	logger := zerolog.Ctx(ctx).With().Str("camera_id", camera.ID).Logger()

	if err := os.MkdirAll(r.cfg.ScratchDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, duration+r.cfg.Grace)
	defer cancel()

	logger.Info().Str("video_url", camera.VideoURL).Msg("opening stream")
	src, err := r.backend.OpenStream(runCtx, camera.VideoURL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open stream")
		return nil, &StreamOpenError{Target: camera.VideoURL, Err: err}
	}
	defer src.Close()

	props := src.Props()
	fps := ResolveFPS(props.FPS, r.cfg.DefaultFPS)
	maxFrames := int(fps * duration.Seconds())
	name := NewRecordingName(camera.ID, r.cfg.Now().In(r.cfg.Location))
	path := filepath.Join(r.cfg.ScratchDir, name.String())

	r.setState(camera.ID, StateRecording)
	logger.Info().
		Float64("reported_fps", props.FPS).
		Float64("fps", fps).
		Int("max_frames", maxFrames).
		Str("output", path).
		Msg("recording")

	var (
		sink    media.Sink
		width   = props.Width
		height  = props.Height
		written int
	)
	for written < maxFrames {
		frame, err := src.Read(runCtx)
		if err != nil {
			logger.Warn().Err(err).Int("frames_written", written).Msg("stream read failed, ending recording")
			break
		}

		if sink == nil {
			if width <= 0 || height <= 0 {
				width, height = frame.Width, frame.Height
			}
			// the encoder must outlive runCtx so it can finalize the file
			sink, err = r.backend.CreateVideo(context.WithoutCancel(ctx), path, fps, width, height)
			if err != nil {
				return nil, fmt.Errorf("create %s: %w", path, err)
			}
		}

		if err := sink.Write(frame); err != nil {
			logger.Warn().Err(err).Int("frames_written", written).Msg("frame write failed, ending recording")
			break
		}
		written++
	}

	if sink == nil {
		return nil, &StreamOpenError{Target: camera.VideoURL, Err: errors.New("stream produced no frames")}
	}
	if err := sink.Close(); err != nil {
		return nil, fmt.Errorf("finalize %s: %w", path, err)
	}

	logger.Info().Int("frames_written", written).Str("output", path).Msg("recording complete")

	return &entities.Recording{
		ID:            uuid.New(),
		CameraId:      camera.ID,
		FileName:      name.String(),
		Path:          path,
		Timestamp:     name.Timestamp,
		Width:         width,
		Height:        height,
		FPS:           fps,
		FramesWritten: written,
		Duration:      float64(written) / fps,
	}, nil
}

// Preview reads up to fps*duration frames from the live stream at roughly
// fps and passes each to fn. It writes nothing to disk.
func (r *Recorder) Preview(ctx context.Context, camera entities.Camera, duration time.Duration, fps int, fn func(index int, frame media.Frame) error) (int, error) {
	if camera.VideoURL == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoVideoURL, camera.ID)
	}
	if fps <= 0 {
		return 0, fmt.Errorf("preview fps must be positive, got %d", fps)
	}

	runCtx, cancel := context.WithTimeout(ctx, duration+r.cfg.Grace)
	defer cancel()

	src, err := r.backend.OpenStream(runCtx, camera.VideoURL)
	if err != nil {
		return 0, &StreamOpenError{Target: camera.VideoURL, Err: err}
	}
	defer src.Close()

	maxFrames := int(float64(fps) * duration.Seconds())
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	shown := 0
	for shown < maxFrames {
		frame, err := src.Read(runCtx)
		if err != nil {
			break
		}
		if err := fn(shown+1, frame); err != nil {
			return shown, err
		}
		shown++

		select {
		case <-runCtx.Done():
			return shown, nil
		case <-ticker.C:
		}
	}
	return shown, nil
}
