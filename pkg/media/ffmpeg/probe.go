package ffmpeg

import (
	"camera-ingest/pkg/media"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func probeArgs(input string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		input,
	}
}

// Probe asks ffprobe for the first video stream's properties.
func (b *Backend) Probe(ctx context.Context, input string) (media.Props, error) {
	ctx, cancel := context.WithTimeout(ctx, b.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.FFprobePath, probeArgs(input)...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return media.Props{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return media.Props{}, fmt.Errorf("ffprobe: %w", err)
	}

	return parseProbe(output)
}

func parseProbe(data []byte) (media.Props, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return media.Props{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return media.Props{}, fmt.Errorf("no video stream found")
	}

	s := out.Streams[0]
	props := media.Props{
		Width:  s.Width,
		Height: s.Height,
		FPS:    parseRate(s.AvgFrameRate),
	}
	if props.FPS == 0 {
		props.FPS = parseRate(s.RFrameRate)
	}
	if n, err := strconv.Atoi(s.NbFrames); err == nil {
		props.FrameCount = n
	}

	duration := parseSeconds(s.Duration)
	if duration == 0 {
		duration = parseSeconds(out.Format.Duration)
	}
	props.Duration = duration
	if props.FrameCount == 0 && duration > 0 && props.FPS > 0 {
		props.FrameCount = int(duration.Seconds() * props.FPS)
	}

	return props, nil
}

// parseRate parses ffprobe rationals such as "30000/1001". Unreadable rates are 0.
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(rate), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return sanitize(n)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return sanitize(n / d)
}

func parseSeconds(v string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || secs <= 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
