package server

import (
	"bytes"
	"camera-ingest/constant"
	"camera-ingest/dto"
	"camera-ingest/entities"
	"camera-ingest/pkg/traffic"
	"camera-ingest/service"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeDirectory struct {
	cameras []entities.Camera
	signs   []entities.Sign
	err     error
}

func (f *fakeDirectory) GetCameras(context.Context) ([]entities.Camera, error) {
	return f.cameras, f.err
}

func (f *fakeDirectory) GetSigns(context.Context) ([]entities.Sign, error) {
	return f.signs, f.err
}

type fakeIngest struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*entities.Job
	recordings map[uuid.UUID][]dto.RecordingDetail
}

func (f *fakeIngest) Submit(_ context.Context, cameraID string, durationSeconds, extractFPS int) (*entities.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := &entities.Job{
		ID:              uuid.New(),
		CameraId:        cameraID,
		DurationSeconds: durationSeconds,
		ExtractFPS:      extractFPS,
		Status:          constant.JobStatusPending,
		JobType:         constant.JobTypeIngest,
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeIngest) Process(context.Context, dto.IngestJobMessage) error {
	return nil
}

func (f *fakeIngest) FindJob(_ context.Context, id uuid.UUID) (*entities.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeIngest) JobDetail(ctx context.Context, id uuid.UUID) (*dto.JobDetailResponse, error) {
	job, err := f.FindJob(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dto.JobDetailResponse{Job: job, Recordings: append([]dto.RecordingDetail{}, f.recordings[id]...)}, nil
}

func (f *fakeIngest) complete(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].Status = constant.JobStatusCompleted
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Enabled() bool { return true }

func (f *fakeNotifier) Send(_ context.Context, message string) error {
	f.sent = append(f.sent, message)
	return nil
}

var testCameras = []entities.Camera{
	{ID: "NYSDOT_1", Name: "I-87 at Exit 4", Roadway: "I-87", Direction: "Northbound", VideoURL: "http://example/1.m3u8"},
	{ID: "NYSDOT_2", Name: "I-90 at Exit 24", Roadway: "I-90", Direction: "Eastbound", VideoURL: "http://example/2.m3u8"},
	{ID: "NYSDOT_3", Name: "I-87 at Exit 7", Roadway: "I-87", Direction: "Southbound", VideoURL: "http://example/3.m3u8"},
}

var testSigns = []entities.Sign{
	{ID: "S1", Name: "I-87 NB", Roadway: "I-87", Messages: []string{"CRASH AHEAD"}},
	{ID: "S2", Name: "I-90 EB", Roadway: "I-90"},
}

type testEnv struct {
	router    *gin.Engine
	directory *fakeDirectory
	ingest    *fakeIngest
	notifier  *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		directory: &fakeDirectory{cameras: testCameras, signs: testSigns},
		ingest:    &fakeIngest{jobs: map[uuid.UUID]*entities.Job{}},
		notifier:  &fakeNotifier{},
	}
	ctx := zerolog.New(io.Discard).WithContext(context.Background())
	env.router = NewRouter(ctx, &API{
		Directory: service.NewDirectory(env.directory),
		Sessions:  service.NewSessionStore(0),
		Ingest:    env.ingest,
		Composer:  service.NewComposer(nil),
		Notifier:  env.notifier,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSearchCameras(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/cameras?road=I-87", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cameras := decode[[]entities.Camera](t, w)
	require.Len(t, cameras, 2)
	assert.Equal(t, "NYSDOT_1", cameras[0].ID)
	assert.Equal(t, "NYSDOT_3", cameras[1].ID)

	w = env.do(t, http.MethodGet, "/cameras?road=i-87", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]entities.Camera](t, w))
}

func TestSearchCamerasDirectoryDown(t *testing.T) {
	env := newTestEnv(t)
	env.directory.err = fmt.Errorf("%w: getcameras", traffic.ErrUnavailable)

	w := env.do(t, http.MethodGet, "/cameras?road=I-87", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetCameraAndSigns(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/cameras/NYSDOT_2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "I-90 at Exit 24", decode[entities.Camera](t, w).Name)

	w = env.do(t, http.MethodGet, "/cameras/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/cameras/NYSDOT_1/signs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Signs  []entities.Sign `json:"signs"`
		Report string          `json:"report"`
	}](t, w)
	require.Len(t, body.Signs, 1)
	assert.Equal(t, "S1", body.Signs[0].ID)
	assert.Contains(t, body.Report, "Camera on I-87 has the following associated signs")
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	session := decode[service.SessionView](t, w)
	base := "/sessions/" + session.ID.String()

	w = env.do(t, http.MethodPost, base+"/recordings", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, base+"/signs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No camera selected.")

	w = env.do(t, http.MethodPost, base+"/search", dto.SearchRequest{Road: "I-87"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[service.SessionView](t, w).Cameras, 2)

	w = env.do(t, http.MethodPut, base+"/camera", dto.SelectCameraRequest{Index: 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, base+"/camera", dto.SelectCameraRequest{Index: 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NYSDOT_3")

	w = env.do(t, http.MethodPost, base+"/recordings", dto.StartRecordingRequest{DurationSeconds: 10, ExtractFPS: 2})
	require.Equal(t, http.StatusAccepted, w.Code)
	started := decode[dto.StartRecordingResponse](t, w)
	assert.Equal(t, string(constant.JobStatusPending), started.Status)

	w = env.do(t, http.MethodGet, "/jobs/"+started.JobId.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	job := decode[entities.Job](t, w)
	assert.Equal(t, "NYSDOT_3", job.CameraId)
	assert.Equal(t, 10, job.DurationSeconds)

	w = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[service.SessionView](t, w).Uploaded)

	env.ingest.complete(started.JobId)
	w = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[service.SessionView](t, w)
	assert.True(t, view.Uploaded)
	require.NotNil(t, view.LastJobId)
	assert.Equal(t, started.JobId, *view.LastJobId)
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobIncludesRecordingsAndFrames(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.ingest.Submit(context.Background(), "NYSDOT_3", 10, 2)
	require.NoError(t, err)
	env.ingest.complete(job.ID)

	bufferKey := "buffer/NYSDOT_3_2024-10-13_04-36-59_im1.jpg"
	inferenceKey := "inference/NYSDOT_3_2024-10-13_04-36-59_im1.jpg"
	rec := &entities.Recording{ID: uuid.New(), JobId: &job.ID, CameraId: "NYSDOT_3", FileName: "NYSDOT_3_2024-10-13_04-36-59.mp4"}
	env.ingest.mu.Lock()
	env.ingest.recordings = map[uuid.UUID][]dto.RecordingDetail{
		job.ID: {{
			Recording: rec,
			Frames: []*entities.Frame{{
				ID:           uuid.New(),
				RecordingId:  rec.ID,
				Sequence:     1,
				FrameName:    "NYSDOT_3_2024-10-13_04-36-59_im1",
				BufferKey:    &bufferKey,
				InferenceKey: &inferenceKey,
			}},
		}},
	}
	env.ingest.mu.Unlock()

	w := env.do(t, http.MethodGet, "/jobs/"+job.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ID         uuid.UUID          `json:"id"`
		Status     constant.JobStatus `json:"status"`
		Recordings []struct {
			ID       uuid.UUID `json:"id"`
			FileName string    `json:"file_name"`
			Frames   []struct {
				Sequence     int    `json:"sequence"`
				BufferKey    string `json:"buffer_key"`
				InferenceKey string `json:"inference_key"`
			} `json:"frames"`
		} `json:"recordings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, job.ID, body.ID)
	assert.Equal(t, constant.JobStatusCompleted, body.Status)
	require.Len(t, body.Recordings, 1)
	assert.Equal(t, rec.ID, body.Recordings[0].ID)
	assert.Equal(t, rec.FileName, body.Recordings[0].FileName)
	require.Len(t, body.Recordings[0].Frames, 1)
	assert.Equal(t, 1, body.Recordings[0].Frames[0].Sequence)
	assert.Equal(t, bufferKey, body.Recordings[0].Frames[0].BufferKey)
	assert.Equal(t, inferenceKey, body.Recordings[0].Frames[0].InferenceKey)
}

func TestGetJobErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/jobs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompose(t *testing.T) {
	env := newTestEnv(t)
	row := entities.FrameRecord{
		FrameName:  "42_2024-10-13_04-36-59_im1",
		CameraName: "Waterford Lakes",
		Latitude:   28.57,
		Longitude:  -81.17,
		Timestamp:  "2024-10-13_04-36-59",
	}

	w := env.do(t, http.MethodPost, "/notifications/compose", dto.ComposeRequest{Row: row, Send: true})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.ComposeResponse](t, w)
	assert.True(t, resp.Sent)
	assert.Contains(t, resp.Message, "camera 42 at Waterford Lakes")
	assert.Contains(t, resp.Message, "on 2024-10-13 at 04-36-59")
	assert.Equal(t, []string{resp.Message}, env.notifier.sent)

	row.Timestamp = "2024-13-45_04-36-59"
	w = env.do(t, http.MethodPost, "/notifications/compose", dto.ComposeRequest{Row: row})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(service.ErrRecordingInProgress))
	assert.Equal(t, http.StatusBadGateway, statusFor(traffic.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
