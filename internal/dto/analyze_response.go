package dto

import (
	"strconv"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

// FrameResult is one entry of a video frame analysis on the wire.
type FrameResult struct {
	Timestamp  FlexString `json:"timestamp"`
	IsDeepfake bool       `json:"is_deepfake"`
	Confidence FlexString `json:"confidence"`
}

// AnalyzeResponse is the JSON body exchanged on /analyze-image and
// /analyze-video, both by this server and by external detectors. Every field
// is optional on decode; Normalize applies the defaulting policy.
type AnalyzeResponse struct {
	ID                int64          `json:"id,omitempty"`
	Kind              string         `json:"kind,omitempty"`
	Generation        uint64         `json:"generation,omitempty"`
	Result            string         `json:"result,omitempty"`
	FinalVerdict      string         `json:"final_verdict,omitempty"`
	IsDeepfake        *bool          `json:"is_deepfake,omitempty"`
	Confidence        FlexString     `json:"confidence,omitempty"`
	DetectionAccuracy FlexString     `json:"detection_accuracy,omitempty"`
	Metadata          model.Metadata `json:"metadata"`
	RealFrames        FlexString     `json:"real_frames,omitempty"`
	FakeFrames        FlexString     `json:"fake_frames,omitempty"`
	FrameAnalysis     []FrameResult  `json:"frame_analysis,omitempty"`
	PreviewURL        string         `json:"preview_url,omitempty"`
	Filename          string         `json:"filename,omitempty"`
	Analyzer          string         `json:"analyzer,omitempty"`
	CreatedAt         string         `json:"created_at,omitempty"`
}

// FromAnalysis builds the wire response for a settled analysis. Image and
// video field names are both populated so either page script can read it.
func FromAnalysis(a *model.Analysis) AnalyzeResponse {
	isDeepfake := a.Verdict.IsDeepfake()
	confidence := FlexString(FormatPercent(a.Confidence))

	resp := AnalyzeResponse{
		ID:         a.ID,
		Kind:       string(a.Kind),
		Result:     string(a.Verdict),
		IsDeepfake: &isDeepfake,
		Confidence: confidence,
		Metadata:   a.Metadata,
		Filename:   a.Filename,
		Analyzer:   a.Analyzer,
	}
	if resp.Metadata == nil {
		resp.Metadata = model.Metadata{}
	}
	if a.StoredName != "" {
		resp.PreviewURL = "/uploads/" + a.StoredName
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}

	if a.Kind == model.KindVideo {
		resp.FinalVerdict = string(a.Verdict)
		resp.DetectionAccuracy = confidence
		resp.RealFrames = FlexString(strconv.Itoa(a.RealFrames))
		resp.FakeFrames = FlexString(strconv.Itoa(a.FakeFrames))
		for _, f := range a.Frames {
			resp.FrameAnalysis = append(resp.FrameAnalysis, FrameResult{
				Timestamp:  FlexString(strconv.FormatFloat(f.Timestamp, 'f', -1, 64)),
				IsDeepfake: f.IsDeepfake,
				Confidence: FlexString(FormatPercent(f.Confidence)),
			})
		}
	}
	return resp
}

// Normalize converts a loosely populated response into an Analysis.
//
// verdict:    result, then final_verdict, then is_deepfake, else Unknown
// confidence: confidence, then detection_accuracy, else 0
// frames:     frame_analysis when present; real/fake counts from
//             real_frames/fake_frames, or derived from the frames
func (r AnalyzeResponse) Normalize(kind model.MediaKind) *model.Analysis {
	a := &model.Analysis{
		ID:       r.ID,
		Kind:     kind,
		Verdict:  model.VerdictUnknown,
		Metadata: r.Metadata,
		Analyzer: r.Analyzer,
	}
	if a.Metadata == nil {
		a.Metadata = model.Metadata{}
	}

	switch {
	case r.Result != "":
		a.Verdict = model.ParseVerdict(r.Result)
	case r.FinalVerdict != "":
		a.Verdict = model.ParseVerdict(r.FinalVerdict)
	case r.IsDeepfake != nil:
		a.Verdict = model.VerdictOf(*r.IsDeepfake)
	}

	if v, ok := ParsePercent(r.Confidence); ok {
		a.Confidence = v
	} else if v, ok := ParsePercent(r.DetectionAccuracy); ok {
		a.Confidence = v
	}

	for _, f := range r.FrameAnalysis {
		ts, _ := strconv.ParseFloat(string(f.Timestamp), 64)
		conf, _ := ParsePercent(f.Confidence)
		a.Frames = append(a.Frames, model.FrameVerdict{
			Timestamp:  ts,
			IsDeepfake: f.IsDeepfake,
			Confidence: conf,
		})
	}

	if r.RealFrames != "" || r.FakeFrames != "" {
		a.RealFrames = ParseCount(r.RealFrames)
		a.FakeFrames = ParseCount(r.FakeFrames)
	} else {
		a.CountFrames()
	}
	return a
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QueuedResponse acknowledges an asynchronous analysis.
type QueuedResponse struct {
	Kind       string `json:"kind"`
	Generation uint64 `json:"generation"`
	State      string `json:"state"`
	PreviewURL string `json:"preview_url,omitempty"`
}
