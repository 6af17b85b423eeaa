package media

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

// VideoInfo holds stream properties. Zero fields are reported as Unknown.
type VideoInfo struct {
	Duration time.Duration
	Width    int
	Height   int
	FPS      float64
	Codec    string
}

// VideoProber reads stream properties of a video upload.
type VideoProber interface {
	ProbeVideo(ctx context.Context, file *model.UploadedFile) (VideoInfo, error)
}

// BasicProber knows nothing about the stream and leaves every property Unknown.
// It is used when no decoder backend is available.
type BasicProber struct{}

func (BasicProber) ProbeVideo(ctx context.Context, file *model.UploadedFile) (VideoInfo, error) {
	return VideoInfo{}, ctx.Err()
}

// VideoMetadata builds the ordered rows for a video result.
func VideoMetadata(file *model.UploadedFile, info VideoInfo) model.Metadata {
	var md model.Metadata

	md.Set("duration", Unknown)
	if info.Duration > 0 {
		md.Set("duration", FormatDuration(info.Duration))
	}
	md.Set("format", formatOf(file.MIMEType))
	md.Set("size", humanize.Bytes(uint64(file.Size)))

	md.Set("resolution", Unknown)
	if info.Width > 0 && info.Height > 0 {
		md.Set("resolution", fmt.Sprintf("%dx%d", info.Width, info.Height))
	}

	md.Set("fps", Unknown)
	if info.FPS > 0 {
		md.Set("fps", strconv.FormatFloat(info.FPS, 'f', -1, 64))
	}

	md.Set("codec", Unknown)
	if info.Codec != "" {
		md.Set("codec", info.Codec)
	}
	return md
}

// FormatDuration renders a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	total := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
