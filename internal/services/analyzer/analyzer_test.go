package analyzer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services/media"
)

// sequence replays fixed values, cycling when exhausted.
type sequence struct {
	values []float64
	i      int
}

func (s *sequence) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

type fixedProber struct {
	info media.VideoInfo
}

func (p fixedProber) ProbeVideo(ctx context.Context, file *model.UploadedFile) (media.VideoInfo, error) {
	return p.info, nil
}

func imageFile() *model.UploadedFile {
	return &model.UploadedFile{ID: "img-1", Name: "face.png", MIMEType: "image/png", Kind: model.KindImage, Size: 3, Data: []byte("png")}
}

func videoFile() *model.UploadedFile {
	return &model.UploadedFile{ID: "vid-1", Name: "clip.mp4", MIMEType: "video/mp4", Kind: model.KindVideo, Size: 3, Data: []byte("mp4"), StoredName: "vid-1_clip.mp4"}
}

// ===== Simulated =====

func TestSimulated_Image(t *testing.T) {
	sim := NewSimulated(SimulatedOptions{Random: &sequence{values: []float64{0.9, 0.875}}})

	result, err := Analyze(context.Background(), sim, Request{File: imageFile()})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Verdict != model.VerdictFake {
		t.Errorf("Expected Fake for draw 0.9, got %s", result.Verdict)
	}
	if result.Confidence != 87.5 {
		t.Errorf("Expected confidence 87.5, got %v", result.Confidence)
	}
	if result.Filename != "face.png" || result.Analyzer != "simulated" {
		t.Errorf("File identity not attached: %+v", result)
	}
	if _, ok := result.Metadata.Get("format"); !ok {
		t.Error("Expected image metadata rows")
	}
}

func TestSimulated_ThresholdIsExclusive(t *testing.T) {
	sim := NewSimulated(SimulatedOptions{Random: &sequence{values: []float64{0.5, 0.1}}})

	result, err := sim.AnalyzeImage(context.Background(), Request{File: imageFile()})
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if result.Verdict != model.VerdictReal {
		t.Errorf("Draw of exactly 0.5 should be Real, got %s", result.Verdict)
	}
}

func TestSimulated_VideoHasTenFrames(t *testing.T) {
	prober := fixedProber{info: media.VideoInfo{Duration: 90 * time.Second, Width: 1280, Height: 720, FPS: 30, Codec: "H.264"}}
	sim := NewSimulated(SimulatedOptions{
		Random: &sequence{values: []float64{0.7, 0.42, 0.2, 0.99}},
		Prober: prober,
	})

	var calls int
	result, err := Analyze(context.Background(), sim, Request{
		File:     videoFile(),
		Progress: func(done, total int) { calls++ },
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.Frames) != 10 {
		t.Fatalf("Expected 10 frames, got %d", len(result.Frames))
	}
	for i, f := range result.Frames {
		if f.Timestamp != float64(i) {
			t.Errorf("Frame %d: expected timestamp %d, got %v", i, i, f.Timestamp)
		}
		if f.Confidence < 0 || f.Confidence > 100 {
			t.Errorf("Frame %d: confidence %v out of range", i, f.Confidence)
		}
	}
	if result.RealFrames+result.FakeFrames != 10 {
		t.Errorf("Frame counts should sum to 10, got %d+%d", result.RealFrames, result.FakeFrames)
	}
	if calls != 10 {
		t.Errorf("Expected 10 progress reports, got %d", calls)
	}
	if v, _ := result.Metadata.Get("duration"); v != "00:01:30" {
		t.Errorf("Expected probed duration, got %q", v)
	}
	if result.StoredName != "vid-1_clip.mp4" {
		t.Errorf("Stored name not attached: %q", result.StoredName)
	}
}

func TestSimulated_CancelledDuringDelay(t *testing.T) {
	sim := NewSimulated(SimulatedOptions{ImageDelay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := sim.AnalyzeImage(ctx, Request{File: imageFile()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Cancellation did not interrupt the delay")
	}
}

func TestSimulated_ConcurrentUse(t *testing.T) {
	sim := NewSimulated(SimulatedOptions{})

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := sim.AnalyzeVideo(context.Background(), Request{File: videoFile()})
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("AnalyzeVideo failed: %v", err)
		}
	}
}

func TestAnalyze_UnknownKind(t *testing.T) {
	file := imageFile()
	file.Kind = "audio"
	if _, err := Analyze(context.Background(), NewSimulated(SimulatedOptions{}), Request{File: file}); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

// ===== Remote =====

func TestRemote_Image(t *testing.T) {
	var gotPath, gotName, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile failed: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName, gotBody = header.Filename, string(data)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"result":"Fake","confidence":"87.5%","metadata":{"format":"image/png"}}`)
	}))
	defer server.Close()

	remote := NewRemote(server.URL+"/", 0)
	result, err := Analyze(context.Background(), remote, Request{File: imageFile()})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if gotPath != "/analyze-image" || gotName != "face.png" || gotBody != "png" {
		t.Errorf("Unexpected request: path %s name %s body %q", gotPath, gotName, gotBody)
	}
	if result.Verdict != model.VerdictFake || result.Confidence != 87.5 {
		t.Errorf("Unexpected result: %s %v", result.Verdict, result.Confidence)
	}
	if len(result.Metadata) != 1 || result.Metadata[0] != (model.MetadataEntry{Key: "format", Value: "image/png"}) {
		t.Errorf("Unexpected metadata: %v", result.Metadata)
	}
	if result.Analyzer != "remote" {
		t.Errorf("Expected remote analyzer name, got %s", result.Analyzer)
	}
}

func TestRemote_Video(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-video" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"final_verdict":"real","detection_accuracy":0.8,"real_frames":"8","fake_frames":2}`)
	}))
	defer server.Close()

	result, err := NewRemote(server.URL, time.Second).AnalyzeVideo(context.Background(), Request{File: videoFile()})
	if err != nil {
		t.Fatalf("AnalyzeVideo failed: %v", err)
	}
	if result.Verdict != model.VerdictReal || result.Confidence != 80 {
		t.Errorf("Unexpected result: %s %v", result.Verdict, result.Confidence)
	}
	if result.RealFrames != 8 || result.FakeFrames != 2 {
		t.Errorf("Unexpected counts: %d/%d", result.RealFrames, result.FakeFrames)
	}
}

func TestRemote_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model offline", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewRemote(server.URL, 0).AnalyzeImage(context.Background(), Request{File: imageFile()})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("Expected 502 error, got %v", err)
	}
}

func TestRemote_Timeout(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewRemote(server.URL, 50*time.Millisecond).AnalyzeImage(context.Background(), Request{File: imageFile()})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if hits.Load() != 1 {
		t.Errorf("Expected exactly one attempt, got %d", hits.Load())
	}
}

func TestRemote_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"metadata": ["not", "an", "object"]}`)
	}))
	defer server.Close()

	if _, err := NewRemote(server.URL, 0).AnalyzeImage(context.Background(), Request{File: imageFile()}); err == nil {
		t.Error("Expected decode error for non-object metadata")
	}
}
