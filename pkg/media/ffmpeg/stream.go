package ffmpeg

import (
	"bytes"
	"camera-ingest/pkg/media"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// stderrLimit caps how much ffmpeg diagnostic output is kept for error messages.
const stderrLimit = 4096

func streamArgs(url string) []string {
	return []string{
		"-nostdin",
		"-loglevel", "error",
		"-i", url,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	}
}

type pipeSource struct {
	props     media.Props
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    *limitedBuffer
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    bool
}

// OpenStream probes url and starts decoding it to raw BGR frames. The decoder
// process lives until Close or until ctx is done.
func (b *Backend) OpenStream(ctx context.Context, url string) (media.Source, error) {
	props, err := b.Probe(ctx, url)
	if err != nil {
		return nil, err
	}
	if props.Width <= 0 || props.Height <= 0 {
		return nil, fmt.Errorf("stream reported no frame size")
	}

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, b.FFmpegPath, streamArgs(url)...)
	stderr := &limitedBuffer{max: stderrLimit}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	return &pipeSource{
		props:  props,
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		cancel: cancel,
	}, nil
}

func (s *pipeSource) Props() media.Props {
	return s.props
}

func (s *pipeSource) Read(ctx context.Context) (media.Frame, error) {
	if s.closed {
		return media.Frame{}, media.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return media.Frame{}, err
	}

	frame := media.Frame{
		Width:  s.props.Width,
		Height: s.props.Height,
		Pix:    make([]byte, s.props.Width*s.props.Height*3),
	}
	if _, err := io.ReadFull(s.stdout, frame.Pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if msg := s.stderr.String(); msg != "" {
				return media.Frame{}, fmt.Errorf("%w: %s", media.ErrEndOfStream, msg)
			}
			return media.Frame{}, media.ErrEndOfStream
		}
		return media.Frame{}, err
	}
	return frame, nil
}

func (s *pipeSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.cancel()
		_ = s.stdout.Close()
		// the process was killed on purpose, its exit status carries no information
		_ = s.cmd.Wait()
	})
	return nil
}

type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if room := l.max - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}

func (l *limitedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return string(bytes.TrimSpace(l.buf.Bytes()))
}
