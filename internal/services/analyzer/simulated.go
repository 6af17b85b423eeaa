package analyzer

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services/media"
)

// RandomSource yields uniformly distributed values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// SimulatedOptions configures a Simulated analyzer.
type SimulatedOptions struct {
	ImageDelay   time.Duration
	VideoDelay   time.Duration
	FrameSamples int
	Random       RandomSource
	Prober       media.VideoProber
}

// Simulated is a placeholder detector. After a fixed delay it draws verdicts
// and confidences from a random source; it performs no detection.
type Simulated struct {
	imageDelay   time.Duration
	videoDelay   time.Duration
	frameSamples int
	prober       media.VideoProber

	mu     sync.Mutex
	random RandomSource
	now    func() time.Time
}

func NewSimulated(opts SimulatedOptions) *Simulated {
	if opts.Random == nil {
		opts.Random = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	if opts.Prober == nil {
		opts.Prober = media.BasicProber{}
	}
	if opts.FrameSamples <= 0 {
		opts.FrameSamples = 10
	}
	return &Simulated{
		imageDelay:   opts.ImageDelay,
		videoDelay:   opts.VideoDelay,
		frameSamples: opts.FrameSamples,
		prober:       opts.Prober,
		random:       opts.Random,
		now:          time.Now,
	}
}

func (s *Simulated) Name() string { return "simulated" }

func (s *Simulated) AnalyzeImage(ctx context.Context, req Request) (*model.Analysis, error) {
	if err := sleep(ctx, s.imageDelay); err != nil {
		return nil, err
	}
	req.Progress.Report(1, 1)

	isDeepfake, confidence := s.draw()
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

func (s *Simulated) AnalyzeVideo(ctx context.Context, req Request) (*model.Analysis, error) {
	step := s.videoDelay / time.Duration(s.frameSamples)

	frames := make([]model.FrameVerdict, 0, s.frameSamples)
	for i := 0; i < s.frameSamples; i++ {
		if err := sleep(ctx, step); err != nil {
			return nil, err
		}
		isDeepfake, confidence := s.draw()
		frames = append(frames, model.FrameVerdict{
			Timestamp:  float64(i),
			IsDeepfake: isDeepfake,
			Confidence: confidence,
		})
		req.Progress.Report(i+1, s.frameSamples)
	}

	info, err := s.prober.ProbeVideo(ctx, req.File)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		info = media.VideoInfo{}
	}

	isDeepfake, confidence := s.draw()
	result := &model.Analysis{
		Kind:       model.KindVideo,
		Verdict:    model.VerdictOf(isDeepfake),
		Confidence: confidence,
		Metadata:   media.VideoMetadata(req.File, info),
		Frames:     frames,
		CreatedAt:  s.now(),
	}
	result.CountFrames()
	return result, nil
}

// draw returns a deepfake flag (p > 0.5) and a confidence in [0, 100).
func (s *Simulated) draw() (bool, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.random.Float64() > 0.5, s.random.Float64() * 100
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
