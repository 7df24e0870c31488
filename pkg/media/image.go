package media

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
)

// JPEGQuality matches the OpenCV imwrite default.
const JPEGQuality = 95

// ToImage converts a BGR24 frame into an RGBA image.
func ToImage(frame Frame) (*image.RGBA, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("frame %dx%d has %d bytes", frame.Width, frame.Height, len(frame.Pix))
	}

	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i, j := 0, 0; i < frame.Width*frame.Height*3; i, j = i+3, j+4 {
		img.Pix[j] = frame.Pix[i+2]
		img.Pix[j+1] = frame.Pix[i+1]
		img.Pix[j+2] = frame.Pix[i]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// EncodeJPEG writes frame to w as a JPEG image.
func EncodeJPEG(w io.Writer, frame Frame) error {
	img, err := ToImage(frame)
	if err != nil {
		return err
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
}

// WriteJPEG encodes frame into a new file at path.
func WriteJPEG(path string, frame Frame) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	return EncodeJPEG(f, frame)
}
