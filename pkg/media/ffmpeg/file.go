package ffmpeg

import (
	"camera-ingest/pkg/media"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

func grabArgs(path string, offset time.Duration) []string {
	return []string{
		"-nostdin",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	}
}

// fileSource decodes single frames from a finished recording. Each Read
// starts a short ffmpeg run at the current offset.
type fileSource struct {
	backend *Backend
	path    string
	props   media.Props
	offset  time.Duration
	closed  bool
}

func (b *Backend) OpenFile(ctx context.Context, path string) (media.SeekSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	props, err := b.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if props.Width <= 0 || props.Height <= 0 {
		return nil, fmt.Errorf("%s reported no frame size", path)
	}

	return &fileSource{backend: b, path: path, props: props}, nil
}

func (f *fileSource) Props() media.Props {
	return f.props
}

func (f *fileSource) Seek(offset time.Duration) error {
	if offset < 0 {
		return fmt.Errorf("negative offset %s", offset)
	}
	f.offset = offset
	return nil
}

func (f *fileSource) Read(ctx context.Context) (media.Frame, error) {
	if f.closed {
		return media.Frame{}, media.ErrClosed
	}
	if f.props.Duration > 0 && f.offset >= f.props.Duration {
		return media.Frame{}, media.ErrEndOfStream
	}

	cmd := exec.CommandContext(ctx, f.backend.FFmpegPath, grabArgs(f.path, f.offset)...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return media.Frame{}, fmt.Errorf("ffmpeg grab at %s: %w: %s", f.offset, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return media.Frame{}, fmt.Errorf("ffmpeg grab at %s: %w", f.offset, err)
	}

	size := f.props.Width * f.props.Height * 3
	if len(output) < size {
		return media.Frame{}, media.ErrEndOfStream
	}
	if f.props.FPS > 0 {
		f.offset += time.Duration(float64(time.Second) / f.props.FPS)
	}

	return media.Frame{Width: f.props.Width, Height: f.props.Height, Pix: output[:size]}, nil
}

func (f *fileSource) Close() error {
	f.closed = true
	return nil
}
