package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

func shadedPNG(t *testing.T, w, h int, invert bool) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx := float64(x)/float64(w) - 0.3
			fy := float64(y)/float64(h) - 0.7
			v := uint8(255 * (fx*fx + 0.05) * (fy*fy + 0.05) / 0.53)
			if invert {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestProbeImage(t *testing.T) {
	data := shadedPNG(t, 64, 48, false)
	file := &model.UploadedFile{Name: "face.png", MIMEType: "image/png", Size: int64(len(data)), Data: data}
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	info := ProbeImage(file, now)

	if info.Width != 64 || info.Height != 48 {
		t.Errorf("Expected 64x48, got %dx%d", info.Width, info.Height)
	}

	wantKeys := []string{"dimensions", "format", "size", "created", "modified"}
	if len(info.Metadata) != len(wantKeys) {
		t.Fatalf("Expected %d rows, got %v", len(wantKeys), info.Metadata)
	}
	for i, key := range wantKeys {
		if info.Metadata[i].Key != key {
			t.Errorf("Row %d: expected %s, got %s", i, key, info.Metadata[i].Key)
		}
	}
	if v, _ := info.Metadata.Get("dimensions"); v != "64x48" {
		t.Errorf("Unexpected dimensions %q", v)
	}
	if v, _ := info.Metadata.Get("format"); v != "image/png" {
		t.Errorf("Unexpected format %q", v)
	}
	if v, _ := info.Metadata.Get("created"); v != "2024-03-01 12:30:00" {
		t.Errorf("Unexpected created %q", v)
	}
	if _, ok := info.Metadata.Get("warning"); ok {
		t.Error("PNG without EXIF should not carry a warning")
	}
	if info.Hash == "" {
		t.Error("Expected a perceptual hash")
	}
}

func TestProbeImage_Undecodable(t *testing.T) {
	file := &model.UploadedFile{Name: "clip.png", Size: 5, Data: []byte("hello")}

	info := ProbeImage(file, time.Now())

	if v, _ := info.Metadata.Get("dimensions"); v != Unknown {
		t.Errorf("Expected Unknown dimensions, got %q", v)
	}
	if v, _ := info.Metadata.Get("format"); v != Unknown {
		t.Errorf("Expected Unknown format, got %q", v)
	}
	if info.Hash != "" {
		t.Errorf("Expected no hash, got %q", info.Hash)
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring a w x h grayscale
// image with no pixel data.
func pngHeader(w, h uint32) []byte {
	var ihdr bytes.Buffer
	ihdr.WriteString("IHDR")
	binary.Write(&ihdr, binary.BigEndian, w)
	binary.Write(&ihdr, binary.BigEndian, h)
	ihdr.Write([]byte{8, 0, 0, 0, 0})

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(ihdr.Len()-4))
	buf.Write(ihdr.Bytes())
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr.Bytes()))
	return buf.Bytes()
}

func TestProbeImage_HugeDimensionsSkipHash(t *testing.T) {
	data := pngHeader(20000, 20000)
	file := &model.UploadedFile{Name: "bomb.png", MIMEType: "image/png", Size: int64(len(data)), Data: data}

	info := ProbeImage(file, time.Now())

	if info.Width != 20000 || info.Height != 20000 {
		t.Errorf("Expected header dimensions, got %dx%d", info.Width, info.Height)
	}
	if info.Hash != "" {
		t.Errorf("Expected no hash for oversized image, got %q", info.Hash)
	}
	if _, err := PerceptualHash(data); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Expected ErrImageTooLarge, got %v", err)
	}
}

func TestCheckPixels(t *testing.T) {
	if err := CheckPixels(shadedPNG(t, 64, 48, false)); err != nil {
		t.Errorf("Small image rejected: %v", err)
	}
	if err := CheckPixels(pngHeader(8000, 5000)); err != nil {
		t.Errorf("40 MP image should be allowed, got %v", err)
	}
	if err := CheckPixels(pngHeader(8001, 5000)); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Expected ErrImageTooLarge, got %v", err)
	}
	if err := CheckPixels([]byte("hello")); err == nil || errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Expected header error, got %v", err)
	}
}

func TestHashDistance(t *testing.T) {
	a, err := PerceptualHash(shadedPNG(t, 64, 64, false))
	if err != nil {
		t.Fatalf("PerceptualHash failed: %v", err)
	}
	b, err := PerceptualHash(shadedPNG(t, 128, 128, false))
	if err != nil {
		t.Fatalf("PerceptualHash failed: %v", err)
	}
	c, err := PerceptualHash(shadedPNG(t, 64, 64, true))
	if err != nil {
		t.Fatalf("PerceptualHash failed: %v", err)
	}

	same, err := HashDistance(a, b)
	if err != nil {
		t.Fatalf("HashDistance failed: %v", err)
	}
	different, err := HashDistance(a, c)
	if err != nil {
		t.Fatalf("HashDistance failed: %v", err)
	}
	if same >= different {
		t.Errorf("Rescaled copy (%d) should be closer than inverted image (%d)", same, different)
	}

	if _, err := HashDistance(a, "not-a-hash"); err == nil {
		t.Error("Expected error for malformed hash")
	}
}

func TestVideoMetadata(t *testing.T) {
	file := &model.UploadedFile{MIMEType: "video/mp4", Size: 3 << 20}
	info := VideoInfo{Duration: 90 * time.Second, Width: 1920, Height: 1080, FPS: 30, Codec: "H.264"}

	md := VideoMetadata(file, info)

	want := []model.MetadataEntry{
		{Key: "duration", Value: "00:01:30"},
		{Key: "format", Value: "video/mp4"},
		{Key: "size", Value: "3.1 MB"},
		{Key: "resolution", Value: "1920x1080"},
		{Key: "fps", Value: "30"},
		{Key: "codec", Value: "H.264"},
	}
	if len(md) != len(want) {
		t.Fatalf("Expected %d rows, got %v", len(want), md)
	}
	for i := range want {
		if md[i] != want[i] {
			t.Errorf("Row %d: expected %+v, got %+v", i, want[i], md[i])
		}
	}
}

func TestBasicProber(t *testing.T) {
	file := &model.UploadedFile{MIMEType: "video/webm", Size: 10}
	info, err := BasicProber{}.ProbeVideo(context.Background(), file)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}

	md := VideoMetadata(file, info)
	for _, key := range []string{"duration", "resolution", "fps", "codec"} {
		if v, _ := md.Get(key); v != Unknown {
			t.Errorf("Expected %s Unknown, got %q", key, v)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                             "00:00:00",
		1500 * time.Millisecond:       "00:00:02",
		time.Hour + 2*time.Minute + 3: "01:02:00",
		25*time.Hour + 61*time.Second: "25:01:01",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
