// Package ai runs a local deepfake classifier through OpenCV's DNN module.
package ai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services/analyzer"
	"github.com/tejaspavanb/DeepFake/internal/services/media"
)

// InputSize is the square input resolution of the classifier.
const InputSize = 256

// DetectorService classifies images and sampled video frames with a binary
// real/fake network whose single output is the probability of "fake".
type DetectorService struct {
	net           gocv.Net
	netMu         sync.Mutex
	modelPath     string
	configPath    string
	frameInterval int
	prober        *VideoProber
	logger        *logger.Logger
	now           func() time.Time
}

// NewDetectorService loads the network named by the configuration.
func NewDetectorService(cfg *config.Config, logger *logger.Logger) (*DetectorService, error) {
	s := &DetectorService{
		modelPath:     cfg.ModelPath,
		configPath:    cfg.ModelConfigPath,
		frameInterval: max(cfg.FrameInterval, 1),
		prober:        NewVideoProber(),
		logger:        logger,
		now:           time.Now,
	}
	if err := s.initializeNet(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}
	if s.configPath != "" {
		if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
			return fmt.Errorf("model config file not found: %s", s.configPath)
		}
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", s.modelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("🧠 Detection network loaded from %s", s.modelPath)
	return nil
}

func (s *DetectorService) Name() string { return "model" }

// Close releases the network.
func (s *DetectorService) Close() error {
	s.netMu.Lock()
	defer s.netMu.Unlock()
	return s.net.Close()
}

func (s *DetectorService) AnalyzeImage(ctx context.Context, req analyzer.Request) (*model.Analysis, error) {
	if err := media.CheckPixels(req.File.Data); errors.Is(err, media.ErrImageTooLarge) {
		return nil, err
	}
	mat, err := gocv.IMDecode(req.File.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	p, err := s.predict(mat)
	if err != nil {
		return nil, err
	}
	req.Progress.Report(1, 1)

	isDeepfake, confidence := analyzer.FromScore(p)
	info := media.ProbeImage(req.File, s.now())
	return &model.Analysis{
		Kind:       model.KindImage,
		Verdict:    model.VerdictOf(isDeepfake),
		Confidence: confidence,
		Metadata:   info.Metadata,
		Hash:       info.Hash,
		CreatedAt:  s.now(),
	}, nil
}

// AnalyzeVideo classifies every frameInterval-th frame of the stored video.
func (s *DetectorService) AnalyzeVideo(ctx context.Context, req analyzer.Request) (*model.Analysis, error) {
	path, cleanup, err := localPath(req.File)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	defer capture.Close()

	info := probeCapture(capture)
	totalFrames := int(capture.Get(gocv.VideoCaptureFrameCount))
	samples := 0
	if totalFrames > 0 {
		samples = (totalFrames + s.frameInterval - 1) / s.frameInterval
	}

	frame := gocv.NewMat()
	defer frame.Close()

	var frames []model.FrameVerdict
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !capture.Read(&frame) {
			break
		}
		if frame.Empty() || index%s.frameInterval != 0 {
			continue
		}

		p, err := s.predict(frame)
		if err != nil {
			s.logger.Warning("Skipping frame %d of %s: %v", index, req.File.Name, err)
			continue
		}
		isDeepfake, confidence := analyzer.FromScore(p)
		timestamp := float64(index)
		if info.FPS > 0 {
			timestamp = float64(index) / info.FPS
		}
		frames = append(frames, model.FrameVerdict{
			Timestamp:  timestamp,
			IsDeepfake: isDeepfake,
			Confidence: confidence,
		})
		req.Progress.Report(len(frames), max(samples, len(frames)))
	}

	verdict, accuracy := analyzer.Tally(frames)
	s.logger.Info("🎞️ %s: %d frames analysed, verdict %s (%.2f%%)", req.File.Name, len(frames), verdict, accuracy)

	result := &model.Analysis{
		Kind:       model.KindVideo,
		Verdict:    verdict,
		Confidence: accuracy,
		Metadata:   media.VideoMetadata(req.File, info),
		Frames:     frames,
		CreatedAt:  s.now(),
	}
	result.CountFrames()
	return result, nil
}

// predict runs one forward pass. gocv.Net is not safe for concurrent use.
func (s *DetectorService) predict(mat gocv.Mat) (float64, error) {
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.netMu.Lock()
	defer s.netMu.Unlock()

	if s.net.Empty() {
		return 0, fmt.Errorf("detection network not initialized")
	}
	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()
	if output.Empty() {
		return 0, fmt.Errorf("network produced no output")
	}
	return float64(output.GetFloatAt(0, 0)), nil
}

// localPath returns a file path for the upload, writing a temporary copy
// when it has not been stored yet.
func localPath(file *model.UploadedFile) (string, func(), error) {
	if file.Path != "" {
		return file.Path, func() {}, nil
	}
	tmp, err := os.CreateTemp("", "deepfake-*"+extension(file.Name))
	if err != nil {
		return "", nil, fmt.Errorf("creating temp video: %w", err)
	}
	if _, err := tmp.Write(file.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("writing temp video: %w", err)
	}
	tmp.Close()
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}
