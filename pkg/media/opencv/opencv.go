//go:build gocv

// Package opencv implements media.Backend with gocv. It needs OpenCV 4 and
// is only compiled with -tags gocv.
package opencv

import (
	"camera-ingest/constant"
	"camera-ingest/pkg/media"
	"context"
	"fmt"
	"gocv.io/x/gocv"
	"time"
)

type Backend struct{}

var _ media.Backend = Backend{}

func New() Backend {
	return Backend{}
}

func (Backend) Name() string {
	return constant.MediaBackendOpenCV
}

type capture struct {
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	props  media.Props
	reader *media.BlockingReader
}

func open(target string) (*capture, error) {
	vc, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("opencv could not open %s", target)
	}

	props := media.Props{
		Width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        vc.Get(gocv.VideoCaptureFPS),
		FrameCount: int(vc.Get(gocv.VideoCaptureFrameCount)),
	}
	if props.FPS > 0 && props.FrameCount > 0 {
		props.Duration = time.Duration(float64(props.FrameCount) / props.FPS * float64(time.Second))
	}

	c := &capture{vc: vc, mat: gocv.NewMat(), props: props}
	c.reader = media.NewBlockingReader(c.grab)
	return c, nil
}

func (b Backend) OpenStream(_ context.Context, url string) (media.Source, error) {
	return open(url)
}

func (b Backend) OpenFile(_ context.Context, path string) (media.SeekSource, error) {
	return open(path)
}

func (c *capture) Props() media.Props {
	return c.props
}

func (c *capture) Seek(offset time.Duration) error {
	c.vc.Set(gocv.VideoCapturePosMsec, float64(offset.Milliseconds()))
	return nil
}

// Read returns when ctx is done even if VideoCapture.Read is stalled on a
// dead stream.
func (c *capture) Read(ctx context.Context) (media.Frame, error) {
	return c.reader.Read(ctx)
}

func (c *capture) grab() (media.Frame, error) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return media.Frame{}, media.ErrEndOfStream
	}
	return media.Frame{Width: c.mat.Cols(), Height: c.mat.Rows(), Pix: c.mat.ToBytes()}, nil
}

// Close frees the capture once any stalled read has returned.
func (c *capture) Close() error {
	return c.reader.Release(func() error {
		_ = c.mat.Close()
		return c.vc.Close()
	})
}

type writer struct {
	vw *gocv.VideoWriter
}

func (b Backend) CreateVideo(_ context.Context, path string, fps float64, width, height int) (media.Sink, error) {
	vw, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, err
	}
	return &writer{vw: vw}, nil
}

func (w *writer) Write(frame media.Frame) error {
	mat, err := toMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()
	return w.vw.Write(mat)
}

func (w *writer) Close() error {
	return w.vw.Close()
}

func (b Backend) WriteImage(path string, frame media.Frame) error {
	mat, err := toMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()
	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("imwrite %s failed", path)
	}
	return nil
}

func toMat(frame media.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.Mat{}, fmt.Errorf("empty frame")
	}
	return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix)
}
