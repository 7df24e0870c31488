package service

import (
	"camera-ingest/entities"
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"strconv"
	"strings"
	"time"
)

// FallbackAlert is used when a metadata row cannot be turned into an alert.
const FallbackAlert = "Accident alert: an incident was reported by a traffic camera. Details are unavailable."

// LocationResolver turns coordinates into a place description.
type LocationResolver interface {
	Resolve(ctx context.Context, latitude, longitude float64) (string, error)
}

// CoordinateResolver describes a place by its raw coordinates.
type CoordinateResolver struct{}

func (CoordinateResolver) Resolve(_ context.Context, latitude, longitude float64) (string, error) {
	return FormatCoordinates(latitude, longitude), nil
}

func FormatCoordinates(latitude, longitude float64) string {
	return strconv.FormatFloat(latitude, 'f', -1, 64) + ", " + strconv.FormatFloat(longitude, 'f', -1, 64)
}

type Composer struct {
	resolver LocationResolver
}

func NewComposer(resolver LocationResolver) *Composer {
	if resolver == nil {
		resolver = CoordinateResolver{}
	}
	return &Composer{resolver: resolver}
}

// Compose formats the alert sentence for one metadata row. A resolver failure
// falls back to the coordinates; a malformed date is a *DateParseError.
func (c *Composer) Compose(ctx context.Context, row entities.FrameRecord) (string, error) {
	cameraID := row.FrameName
	if parts, err := ParseFrameName(row.FrameName); err == nil {
		cameraID = parts.CameraID
	} else if id, _, found := strings.Cut(row.FrameName, fieldSeparator); found {
		cameraID = id
	}

	datePart, timePart, found := strings.Cut(row.Timestamp, fieldSeparator)
	if !found {
		return "", &DateParseError{Value: row.Timestamp, Err: fmt.Errorf("missing %q between date and time", fieldSeparator)}
	}
	date, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return "", &DateParseError{Value: datePart, Err: err}
	}

	location, err := c.resolver.Resolve(ctx, row.Latitude, row.Longitude)
	if err != nil || strings.TrimSpace(location) == "" {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("location lookup failed, using coordinates")
		location = FormatCoordinates(row.Latitude, row.Longitude)
	}

	return fmt.Sprintf(
		"Accident alert: camera %s at %s (%s) reported an incident on %s at %s. Emergency services may be required.",
		cameraID, row.CameraName, location, date.Format(DateLayout), timePart,
	), nil
}

// ComposeOrFallback never fails; errors yield FallbackAlert.
func (c *Composer) ComposeOrFallback(ctx context.Context, row entities.FrameRecord) string {
	msg, err := c.Compose(ctx, row)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("frame_name", row.FrameName).Msg("could not compose alert")
		return FallbackAlert
	}
	return msg
}
