// Package media extracts the metadata rows shown next to an analysis result.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/dustin/go-humanize"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

const (
	// Unknown fills metadata values that could not be read.
	Unknown = "Unknown"

	ManipulationWarning = "Possible image manipulation detected!"

	TimeLayout = "2006-01-02 15:04:05"

	// MaxPixels caps the images decoded in full. A few kilobytes of PNG can
	// describe gigabytes of pixels.
	MaxPixels = 40_000_000
)

var ErrImageTooLarge = errors.New("image dimensions exceed the decode limit")

// ImageInfo is what a probe learns about an image upload.
type ImageInfo struct {
	Width    int
	Height   int
	Metadata model.Metadata
	// Hash is the perceptual hash in goimagehash string form, empty when the
	// content could not be decoded.
	Hash string
}

// ProbeImage reads dimensions, EXIF tags and a perceptual hash from the file.
// Content that does not decode still yields the size and format rows.
func ProbeImage(file *model.UploadedFile, now time.Time) *ImageInfo {
	info := &ImageInfo{}

	dimensions := Unknown
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data)); err == nil {
		info.Width, info.Height = cfg.Width, cfg.Height
		dimensions = fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
	}

	created := now.Format(TimeLayout)
	tags := readEXIF(file.Data)
	if tags.taken != "" {
		created = tags.taken
	}

	info.Metadata.Set("dimensions", dimensions)
	info.Metadata.Set("format", formatOf(file.MIMEType))
	info.Metadata.Set("size", humanize.Bytes(uint64(file.Size)))
	info.Metadata.Set("created", created)
	info.Metadata.Set("modified", now.Format(TimeLayout))

	if tags.camera != "" {
		info.Metadata.Set("camera", tags.camera)
	}
	if tags.software != "" {
		info.Metadata.Set("software", tags.software)
	}
	if tags.taken != "" {
		info.Metadata.Set("date taken", tags.taken)
	}
	if tags.software != "" {
		info.Metadata.Set("warning", ManipulationWarning)
	}

	if hash, err := PerceptualHash(file.Data); err == nil {
		info.Hash = hash
	}
	return info
}

type exifTags struct {
	camera   string
	software string
	taken    string
}

func readEXIF(data []byte) exifTags {
	var tags exifTags
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return tags
	}

	tags.camera = stringTag(x, exif.Model)
	if maker := stringTag(x, exif.Make); maker != "" && !strings.HasPrefix(tags.camera, maker) {
		tags.camera = strings.TrimSpace(maker + " " + tags.camera)
	}
	tags.software = stringTag(x, exif.Software)
	if taken, err := x.DateTime(); err == nil {
		tags.taken = taken.Format(TimeLayout)
	}
	return tags
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// CheckPixels reads the image header and rejects images larger than MaxPixels.
func CheckPixels(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("reading image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// PerceptualHash decodes an image and returns its pHash string.
func PerceptualHash(data []byte) (string, error) {
	if err := CheckPixels(data); err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("hashing image: %w", err)
	}
	return hash.ToString(), nil
}

// HashDistance is the Hamming distance between two hashes from PerceptualHash.
func HashDistance(a, b string) (int, error) {
	ha, err := goimagehash.ImageHashFromString(a)
	if err != nil {
		return 0, fmt.Errorf("parsing hash %q: %w", a, err)
	}
	hb, err := goimagehash.ImageHashFromString(b)
	if err != nil {
		return 0, fmt.Errorf("parsing hash %q: %w", b, err)
	}
	return ha.Distance(hb)
}

func formatOf(mimeType string) string {
	if mimeType == "" {
		return Unknown
	}
	return mimeType
}
