package handler

import (
	"camera-ingest/dto"
	"camera-ingest/service"
	"context"
	"encoding/json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type ServiceDependencies struct {
	IngestService service.Service
}

func IngestHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.IngestJobMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		// a body that does not decode will never decode; drop it
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal ingest message")
		return nil
	}

	zerolog.Ctx(ctx).Info().
		Str("job_id", job.JobId.String()).
		Str("camera_id", job.CameraId).
		Msg("received ingest message")

	return deps.IngestService.Process(ctx, job)
}
