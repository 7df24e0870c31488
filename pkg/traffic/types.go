package traffic

import (
	"camera-ingest/constant"
	"camera-ingest/entities"
	"strings"
)

// cameraResponse mirrors one element of the getcameras payload.
type cameraResponse struct {
	ID                string  `json:"ID"`
	Name              string  `json:"Name"`
	RoadwayName       string  `json:"RoadwayName"`
	DirectionOfTravel string  `json:"DirectionOfTravel"`
	Latitude          float64 `json:"Latitude"`
	Longitude         float64 `json:"Longitude"`
	Url               string  `json:"Url"`
	VideoUrl          string  `json:"VideoUrl"`
	Disabled          bool    `json:"Disabled"`
	Blocked           bool    `json:"Blocked"`
}

// signResponse mirrors one element of the getmessagesigns payload.
type signResponse struct {
	ID                string   `json:"ID"`
	Name              string   `json:"Name"`
	RoadwayName       string   `json:"RoadwayName"`
	DirectionOfTravel string   `json:"DirectionOfTravel"`
	Messages          []string `json:"Messages"`
	Latitude          float64  `json:"Latitude"`
	Longitude         float64  `json:"Longitude"`
}

func (c cameraResponse) toEntity() entities.Camera {
	return entities.Camera{
		ID:        c.ID,
		Name:      lineBreaks.Replace(c.Name),
		Roadway:   orUnknown(c.RoadwayName),
		Direction: orUnknown(c.DirectionOfTravel),
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		ImageURL:  c.Url,
		VideoURL:  c.VideoUrl,
		Disabled:  c.Disabled,
		Blocked:   c.Blocked,
	}
}

func (s signResponse) toEntity() entities.Sign {
	return entities.Sign{
		ID:        s.ID,
		Name:      orUnknown(lineBreaks.Replace(s.Name)),
		Roadway:   orUnknown(s.RoadwayName),
		Direction: orUnknown(s.DirectionOfTravel),
		Messages:  s.Messages,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	}
}

// lineBreaks folds CRLF and bare CR to LF so names survive the metadata table.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return constant.Unknown
	}
	return v
}
