package model

import (
	"strings"
	"time"
)

// Verdict is the authentic/manipulated classification of a media file.
type Verdict string

const (
	VerdictReal    Verdict = "Real"
	VerdictFake    Verdict = "Fake"
	VerdictUnknown Verdict = "Unknown"
)

// ParseVerdict canonicalises loosely-cased verdict strings.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real", "authentic":
		return VerdictReal
	case "fake", "deepfake", "manipulated":
		return VerdictFake
	}
	return VerdictUnknown
}

// VerdictOf maps a deepfake flag to a verdict.
func VerdictOf(isDeepfake bool) Verdict {
	if isDeepfake {
		return VerdictFake
	}
	return VerdictReal
}

// IsDeepfake reports whether the verdict marks the media as manipulated.
func (v Verdict) IsDeepfake() bool {
	return v == VerdictFake
}

// FrameVerdict is the classification of one sampled video frame.
type FrameVerdict struct {
	Timestamp  float64 `json:"timestamp"`
	IsDeepfake bool    `json:"is_deepfake"`
	Confidence float64 `json:"confidence"`
}

// Analysis is the result of analysing one uploaded file.
type Analysis struct {
	ID         int64          `json:"id"`
	UploadID   string         `json:"upload_id"`
	Kind       MediaKind      `json:"kind"`
	Filename   string         `json:"filename"`
	StoredName string         `json:"stored_name"`
	FilePath   string         `json:"-"`
	FileSize   int64          `json:"file_size"`
	MIMEType   string         `json:"mime_type"`
	Verdict    Verdict        `json:"verdict"`
	Confidence float64        `json:"confidence"`
	Metadata   Metadata       `json:"metadata"`
	Frames     []FrameVerdict `json:"frames,omitempty"`
	RealFrames int            `json:"real_frames"`
	FakeFrames int            `json:"fake_frames"`
	Hash       string         `json:"hash,omitempty"`
	Analyzer   string         `json:"analyzer"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CountFrames recomputes RealFrames and FakeFrames from Frames.
func (a *Analysis) CountFrames() {
	a.RealFrames, a.FakeFrames = 0, 0
	for _, f := range a.Frames {
		if f.IsDeepfake {
			a.FakeFrames++
		} else {
			a.RealFrames++
		}
	}
}

// AttachFile copies the identifying fields of f onto the analysis.
func (a *Analysis) AttachFile(f *UploadedFile) {
	if f == nil {
		return
	}
	a.UploadID = f.ID
	a.Kind = f.Kind
	a.Filename = f.Name
	a.StoredName = f.StoredName
	a.FilePath = f.Path
	a.FileSize = f.Size
	a.MIMEType = f.MIMEType
}

// ClampPercent limits v to the [0, 100] range.
func ClampPercent(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AnalysisFilter narrows history queries.
type AnalysisFilter struct {
	Kind       MediaKind
	Verdict    Verdict
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}

// AnalysisStats summarises stored analyses.
type AnalysisStats struct {
	TotalAnalyses  int            `json:"total_analyses"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	PerKind        map[string]int `json:"per_kind"`
	PerVerdict     map[string]int `json:"per_verdict"`
}
