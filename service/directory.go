package service

import (
	"camera-ingest/constant"
	"camera-ingest/entities"
	"context"
	"fmt"
	"strings"
)

// CameraDirectory is the external camera and sign listing.
type CameraDirectory interface {
	GetCameras(ctx context.Context) ([]entities.Camera, error)
	GetSigns(ctx context.Context) ([]entities.Sign, error)
}

type Directory struct {
	api CameraDirectory
}

func NewDirectory(api CameraDirectory) *Directory {
	return &Directory{api: api}
}

// Search returns the cameras whose name contains roadName (case sensitive),
// in directory order. No match is not an error.
func (d *Directory) Search(ctx context.Context, roadName string) ([]entities.Camera, error) {
	cameras, err := d.api.GetCameras(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]entities.Camera, 0)
	for _, cam := range cameras {
		if strings.Contains(cam.Name, roadName) {
			matches = append(matches, cam)
		}
	}
	return matches, nil
}

func (d *Directory) Camera(ctx context.Context, id string) (entities.Camera, error) {
	cameras, err := d.api.GetCameras(ctx)
	if err != nil {
		return entities.Camera{}, err
	}
	for _, cam := range cameras {
		if cam.ID == id {
			return cam, nil
		}
	}
	return entities.Camera{}, fmt.Errorf("%w: %s", ErrCameraNotFound, id)
}

// AssociatedSigns returns the signs on the camera's roadway. A nil camera or
// a camera with an unknown roadway has no signs.
func (d *Directory) AssociatedSigns(ctx context.Context, camera *entities.Camera) ([]entities.Sign, error) {
	if camera == nil || camera.Roadway == "" || camera.Roadway == constant.Unknown {
		return []entities.Sign{}, nil
	}

	signs, err := d.api.GetSigns(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]entities.Sign, 0)
	for _, sign := range signs {
		if sign.Roadway == camera.Roadway {
			matches = append(matches, sign)
		}
	}
	return matches, nil
}

func FormatCamera(camera entities.Camera) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Camera ID: %s\n", camera.ID)
	fmt.Fprintf(&b, "Name: %s\n", camera.Name)
	fmt.Fprintf(&b, "Roadway: %s\n", camera.Roadway)
	fmt.Fprintf(&b, "Direction: %s\n", camera.Direction)
	fmt.Fprintf(&b, "Lat./Long.: %s\n", FormatCoordinates(camera.Latitude, camera.Longitude))
	fmt.Fprintf(&b, "Image URL: %s\n", camera.ImageURL)
	fmt.Fprintf(&b, "Video URL: %s\n", camera.VideoURL)
	return b.String()
}

func FormatSigns(camera *entities.Camera, signs []entities.Sign) string {
	if camera == nil {
		return "No camera selected."
	}
	if len(signs) == 0 {
		return fmt.Sprintf("No signs associated with %s", camera.Roadway)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Camera on %s has the following associated signs:\n", camera.Roadway)
	for _, sign := range signs {
		fmt.Fprintf(&b, "  Sign ID: %s\n", sign.ID)
		fmt.Fprintf(&b, "  Name: %s\n", sign.Name)
		if len(sign.Messages) == 0 {
			b.WriteString("  Messages: No messages\n")
		} else {
			fmt.Fprintf(&b, "  Messages: %s\n", strings.Join(sign.Messages, " | "))
		}
		b.WriteString(strings.Repeat("-", 40) + "\n")
	}
	return b.String()
}
