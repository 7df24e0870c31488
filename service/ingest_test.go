package service

import (
	"camera-ingest/constant"
	"camera-ingest/dto"
	"camera-ingest/entities"
	"camera-ingest/repository"
	"context"
	"database/sql"
	"errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"sync"
	"testing"
	"time"
)

type fakeRepo struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*entities.Job
	recordings []*entities.Recording
	frames     []entities.Frame
	statuses   []constant.JobStatus
	saveErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]*entities.Job{}}
}

func (r *fakeRepo) Transaction(_ context.Context, callback func(repo repository.JobRepository) error, _ ...*sql.TxOptions) error {
	return callback(r)
}

func (r *fakeRepo) GetDB() *gorm.DB { return nil }

func (r *fakeRepo) Migrate(context.Context) error { return nil }

func (r *fakeRepo) CreateJob(_ context.Context, job *entities.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeRepo) FindJobById(_ context.Context, id uuid.UUID) (*entities.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *fakeRepo) setStatus(id uuid.UUID, status constant.JobStatus) {
	r.jobs[id].Status = status
	r.statuses = append(r.statuses, status)
}

func (r *fakeRepo) UpdateStatusJob(_ context.Context, status constant.JobStatus, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setStatus(id, status)
	return nil
}

func (r *fakeRepo) FailJob(_ context.Context, id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setStatus(id, constant.JobStatusFailed)
	r.jobs[id].ErrorMessage = &message
	return nil
}

func (r *fakeRepo) CompleteJob(_ context.Context, id uuid.UUID, counts repository.JobCounts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setStatus(id, constant.JobStatusCompleted)
	r.jobs[id].FramesCaptured = counts.FramesCaptured
	r.jobs[id].FramesSkipped = counts.FramesSkipped
	r.jobs[id].UploadsFailed = counts.UploadsFailed
	return nil
}

func (r *fakeRepo) SaveRecording(_ context.Context, recording *entities.Recording, frames []entities.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.recordings = append(r.recordings, recording)
	r.frames = append(r.frames, frames...)
	return nil
}

func (r *fakeRepo) FindRecordingsByJobId(_ context.Context, jobId uuid.UUID) ([]*entities.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var recordings []*entities.Recording
	for _, rec := range r.recordings {
		if rec.JobId != nil && *rec.JobId == jobId {
			recordings = append(recordings, rec)
		}
	}
	return recordings, nil
}

func (r *fakeRepo) FindFramesByRecordingId(_ context.Context, recordingId uuid.UUID) ([]*entities.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var frames []*entities.Frame
	for i := range r.frames {
		if r.frames[i].RecordingId == recordingId {
			frames = append(frames, &r.frames[i])
		}
	}
	return frames, nil
}

type fakePublisher struct {
	messages []dto.IngestJobMessage
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, message dto.IngestJobMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}

type ingestEnv struct {
	repo      *fakeRepo
	directory *fakeDirectory
	publisher *fakePublisher
	pipeline  *pipelineEnv
	svc       Service
}

func newIngestEnv(t *testing.T) *ingestEnv {
	t.Helper()
	env := &ingestEnv{
		repo:      newFakeRepo(),
		directory: &fakeDirectory{cameras: []entities.Camera{testCamera()}},
		publisher: &fakePublisher{},
		pipeline:  newPipelineEnv(t, true),
	}
	env.svc = NewService(env.repo, NewDirectory(env.directory), env.pipeline.pipeline, env.publisher, PipelineOptions{
		RecordDuration: time.Second,
		ExtractFPS:     2,
		ExtractSeconds: 2,
	})
	return env
}

func (e *ingestEnv) pendingJob(t *testing.T, cameraID string) dto.IngestJobMessage {
	t.Helper()
	_, err := e.svc.Submit(context.Background(), cameraID, 2, 2)
	require.NoError(t, err)
	return e.publisher.messages[len(e.publisher.messages)-1]
}

func TestSubmitCreatesAndPublishes(t *testing.T) {
	env := newIngestEnv(t)

	job, err := env.svc.Submit(context.Background(), "42", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, constant.JobStatusPending, job.Status)
	assert.Equal(t, 1, job.DurationSeconds)
	assert.Equal(t, 2, job.ExtractFPS)

	require.Len(t, env.publisher.messages, 1)
	assert.Equal(t, job.ID, env.publisher.messages[0].JobId)

	stored, err := env.svc.FindJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", stored.CameraId)
}

func TestSubmitPublishFailureFailsJob(t *testing.T) {
	env := newIngestEnv(t)
	env.publisher.err = errors.New("channel closed")

	_, err := env.svc.Submit(context.Background(), "42", 0, 0)
	require.Error(t, err)
	require.Len(t, env.repo.jobs, 1)
	for _, job := range env.repo.jobs {
		assert.Equal(t, constant.JobStatusFailed, job.Status)
	}
}

func TestProcessCompletesJob(t *testing.T) {
	env := newIngestEnv(t)
	msg := env.pendingJob(t, "42")

	require.NoError(t, env.svc.Process(context.Background(), msg))

	job, err := env.svc.FindJob(context.Background(), msg.JobId)
	require.NoError(t, err)
	assert.Equal(t, constant.JobStatusCompleted, job.Status)
	assert.Equal(t, 4, job.FramesCaptured)
	assert.Zero(t, job.UploadsFailed)
	assert.Equal(t, []constant.JobStatus{constant.JobStatusProcessing, constant.JobStatusCompleted}, env.repo.statuses)

	require.Len(t, env.repo.recordings, 1)
	assert.Equal(t, &msg.JobId, env.repo.recordings[0].JobId)
	assert.Len(t, env.repo.frames, 4)
}

func TestJobDetailListsRecordingsAndFrames(t *testing.T) {
	env := newIngestEnv(t)
	msg := env.pendingJob(t, "42")
	require.NoError(t, env.svc.Process(context.Background(), msg))
	otherJob := uuid.New()
	otherRec := &entities.Recording{ID: uuid.New(), JobId: &otherJob}
	require.NoError(t, env.repo.SaveRecording(context.Background(), otherRec, []entities.Frame{{ID: uuid.New(), RecordingId: otherRec.ID, Sequence: 1}}))

	detail, err := env.svc.JobDetail(context.Background(), msg.JobId)
	require.NoError(t, err)
	assert.Equal(t, constant.JobStatusCompleted, detail.Status)
	require.Len(t, detail.Recordings, 1)

	rec := detail.Recordings[0]
	assert.Equal(t, &msg.JobId, rec.JobId)
	require.Len(t, rec.Frames, 4)
	for i, frame := range rec.Frames {
		assert.Equal(t, rec.ID, frame.RecordingId)
		assert.Equal(t, i+1, frame.Sequence)
		require.NotNil(t, frame.BufferKey)
		require.NotNil(t, frame.InferenceKey)
	}

	_, err = env.svc.JobDetail(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProcessSkipsJobThatIsNotPending(t *testing.T) {
	env := newIngestEnv(t)
	msg := env.pendingJob(t, "42")
	env.repo.jobs[msg.JobId].Status = constant.JobStatusCompleted

	require.NoError(t, env.svc.Process(context.Background(), msg))
	assert.Empty(t, env.repo.statuses)
	assert.Empty(t, env.repo.recordings)
}

func TestProcessUnknownCameraFailsJob(t *testing.T) {
	env := newIngestEnv(t)
	msg := env.pendingJob(t, "nope")

	require.NoError(t, env.svc.Process(context.Background(), msg))

	job := env.repo.jobs[msg.JobId]
	assert.Equal(t, constant.JobStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "camera not found")
}

func TestProcessDirectoryOutageIsRetried(t *testing.T) {
	env := newIngestEnv(t)
	msg := env.pendingJob(t, "42")
	env.directory.err = errors.New("camera directory unavailable")

	err := env.svc.Process(context.Background(), msg)
	require.Error(t, err)
	assert.Equal(t, constant.JobStatusPending, env.repo.jobs[msg.JobId].Status)
}

func TestProcessStreamFailureIsNotRetried(t *testing.T) {
	env := newIngestEnv(t)
	msg := env.pendingJob(t, "42")
	env.pipeline.backend.openStreamErr = errors.New("403 forbidden")

	require.NoError(t, env.svc.Process(context.Background(), msg))
	assert.Equal(t, constant.JobStatusFailed, env.repo.jobs[msg.JobId].Status)
}
