package ffmpeg

import (
	"camera-ingest/pkg/media"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// encodeArgs encodes raw BGR frames from stdin as MPEG-4 Part 2, the codec
// behind the mp4v fourcc.
func encodeArgs(path string, fps float64, width, height int) []string {
	return []string{
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
		"-c:v", "mpeg4",
		"-q:v", "5",
		path,
	}
}

type pipeSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *limitedBuffer
	width  int
	height int
	closed bool
}

// CreateVideo starts an encoder bound to ctx. Callers that must finalize the
// file after their own context ends pass a context that is not cancelled.
func (b *Backend) CreateVideo(ctx context.Context, path string, fps float64, width, height int) (media.Sink, error) {
	if width <= 0 || height <= 0 || fps <= 0 {
		return nil, fmt.Errorf("invalid video geometry %dx%d@%v", width, height, fps)
	}

	cmd := exec.CommandContext(ctx, b.FFmpegPath, encodeArgs(path, fps, width, height)...)
	stderr := &limitedBuffer{max: stderrLimit}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg encoder: %w", err)
	}

	return &pipeSink{cmd: cmd, stdin: stdin, stderr: stderr, width: width, height: height}, nil
}

func (s *pipeSink) Write(frame media.Frame) error {
	if s.closed {
		return media.ErrClosed
	}
	if frame.Empty() || frame.Width != s.width || frame.Height != s.height {
		return fmt.Errorf("frame %dx%d does not match video %dx%d", frame.Width, frame.Height, s.width, s.height)
	}
	if _, err := s.stdin.Write(frame.Pix[:s.width*s.height*3]); err != nil {
		return fmt.Errorf("write frame to encoder: %w", err)
	}
	return nil
}

func (s *pipeSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoder: %w: %s", err, s.stderr.String())
	}
	return nil
}
