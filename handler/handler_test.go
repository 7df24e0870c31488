package handler

import (
	"camera-ingest/dto"
	"camera-ingest/entities"
	"context"
	"errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type fakeService struct {
	got []dto.IngestJobMessage
	err error
}

func (f *fakeService) Submit(context.Context, string, int, int) (*entities.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) Process(_ context.Context, message dto.IngestJobMessage) error {
	f.got = append(f.got, message)
	return f.err
}

func (f *fakeService) FindJob(context.Context, uuid.UUID) (*entities.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) JobDetail(context.Context, uuid.UUID) (*dto.JobDetailResponse, error) {
	return nil, errors.New("not implemented")
}

func TestIngestHandlerDecodesMessage(t *testing.T) {
	svc := &fakeService{}
	id := uuid.New()
	body := []byte(`{"jobId":"` + id.String() + `","cameraId":"NYSDOT_42","durationSeconds":10,"extractFps":2}`)

	err := IngestHandler(context.Background(), amqp.Delivery{Body: body}, ServiceDependencies{IngestService: svc})
	require.NoError(t, err)
	require.Len(t, svc.got, 1)
	assert.Equal(t, dto.IngestJobMessage{JobId: id, CameraId: "NYSDOT_42", DurationSeconds: 10, ExtractFPS: 2}, svc.got[0])
}

func TestIngestHandlerDropsUndecodableBody(t *testing.T) {
	svc := &fakeService{}
	err := IngestHandler(context.Background(), amqp.Delivery{Body: []byte("not json")}, ServiceDependencies{IngestService: svc})
	require.NoError(t, err)
	assert.Empty(t, svc.got)
}

func TestIngestHandlerReturnsServiceError(t *testing.T) {
	boom := errors.New("directory down")
	svc := &fakeService{err: boom}
	err := IngestHandler(context.Background(), amqp.Delivery{Body: []byte(`{"cameraId":"1"}`)}, ServiceDependencies{IngestService: svc})
	require.ErrorIs(t, err, boom)
}
