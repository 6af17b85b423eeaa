package analyzer

import "github.com/tejaspavanb/DeepFake/internal/model"

// FakeThreshold is the model score above which media is considered fake.
const FakeThreshold = 0.5

// FromScore maps a model output p in [0, 1] to a verdict and the confidence
// of that verdict as a percentage.
func FromScore(p float64) (isDeepfake bool, confidence float64) {
	if p > FakeThreshold {
		return true, model.ClampPercent(p * 100)
	}
	return false, model.ClampPercent((1 - p) * 100)
}

// Tally derives a video verdict from its sampled frames. The video is fake
// when fake frames outnumber real ones; accuracy is the share of the majority.
func Tally(frames []model.FrameVerdict) (verdict model.Verdict, accuracy float64) {
	var realFrames, fakeFrames int
	for _, f := range frames {
		if f.IsDeepfake {
			fakeFrames++
		} else {
			realFrames++
		}
	}
	total := realFrames + fakeFrames
	if total == 0 {
		return model.VerdictUnknown, 0
	}
	return model.VerdictOf(fakeFrames > realFrames), float64(max(fakeFrames, realFrames)) / float64(total) * 100
}
