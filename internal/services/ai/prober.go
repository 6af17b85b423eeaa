package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services/media"
)

// VideoProber reads stream properties with OpenCV's video backend.
type VideoProber struct{}

func NewVideoProber() *VideoProber {
	return &VideoProber{}
}

func (p *VideoProber) ProbeVideo(ctx context.Context, file *model.UploadedFile) (media.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return media.VideoInfo{}, err
	}

	path, cleanup, err := localPath(file)
	if err != nil {
		return media.VideoInfo{}, err
	}
	defer cleanup()

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return media.VideoInfo{}, fmt.Errorf("failed to open video: %w", err)
	}
	defer capture.Close()

	return probeCapture(capture), nil
}

func probeCapture(capture *gocv.VideoCapture) media.VideoInfo {
	info := media.VideoInfo{
		Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:    capture.Get(gocv.VideoCaptureFPS),
		Codec:  codecName(capture.CodecString()),
	}
	if frames := capture.Get(gocv.VideoCaptureFrameCount); frames > 0 && info.FPS > 0 {
		info.Duration = time.Duration(frames / info.FPS * float64(time.Second))
	}
	return info
}

// codecName turns a FourCC into a readable codec name.
func codecName(fourcc string) string {
	fourcc = strings.TrimSpace(strings.Trim(fourcc, "\x00"))
	switch strings.ToLower(fourcc) {
	case "":
		return ""
	case "avc1", "h264", "x264":
		return "H.264"
	case "hev1", "hvc1", "h265":
		return "H.265"
	case "vp80":
		return "VP8"
	case "vp90":
		return "VP9"
	case "av01":
		return "AV1"
	case "mp4v":
		return "MPEG-4"
	}
	return strings.ToUpper(fourcc)
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
