// Package render turns analysis results into the HTML pages of the site.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/model"
)

// Result classes shared with the page script.
const (
	ClassAuthentic = "result-authentic"
	ClassFake      = "result-fake"
	ClassUncertain = "result-uncertain"
)

type MetadataRow struct {
	Key   string
	Value string
}

// FrameBar is one bar of the per-frame chart.
type FrameBar struct {
	Label  string
	Height string
	Class  string
}

// ResultView is everything a page needs to display one result.
type ResultView struct {
	Kind            model.MediaKind
	VerdictLabel    string
	VerdictClass    string
	ConfidenceText  string
	ConfidenceWidth string
	Metadata        []MetadataRow
	Frames          []FrameBar
	RealFrames      string
	FakeFrames      string
	AnalyzedFrames  string
	Filename        string
	PreviewURL      string
	Analyzer        string
}

// NewResultView maps an analysis to display values.
func NewResultView(a *model.Analysis) *ResultView {
	if a == nil {
		return nil
	}

	verdict := a.Verdict
	if verdict == "" {
		verdict = model.VerdictUnknown
	}
	width := Percent(a.Confidence)

	v := &ResultView{
		Kind:            a.Kind,
		VerdictLabel:    string(verdict),
		VerdictClass:    VerdictClass(verdict),
		ConfidenceText:  width,
		ConfidenceWidth: width,
		RealFrames:      strconv.Itoa(a.RealFrames),
		FakeFrames:      strconv.Itoa(a.FakeFrames),
		AnalyzedFrames:  strconv.Itoa(a.RealFrames + a.FakeFrames),
		Filename:        a.Filename,
		Analyzer:        a.Analyzer,
	}
	if a.StoredName != "" {
		v.PreviewURL = "/uploads/" + a.StoredName
	}

	for _, row := range a.Metadata {
		v.Metadata = append(v.Metadata, MetadataRow{Key: row.Key, Value: row.Value})
	}
	for _, f := range a.Frames {
		class := ClassAuthentic
		if f.IsDeepfake {
			class = ClassFake
		}
		v.Frames = append(v.Frames, FrameBar{
			Label:  FrameLabel(f.Timestamp, f.Confidence),
			Height: Percent(f.Confidence),
			Class:  class,
		})
	}
	return v
}

// ViewFromResponse renders a wire response, applying the defaulting policy
// for missing or malformed fields.
func ViewFromResponse(resp dto.AnalyzeResponse, kind model.MediaKind) *ResultView {
	a := resp.Normalize(kind)
	a.Filename = resp.Filename
	v := NewResultView(a)
	v.PreviewURL = resp.PreviewURL
	return v
}

// VerdictClass picks the CSS class for a verdict.
func VerdictClass(v model.Verdict) string {
	switch v {
	case model.VerdictReal:
		return ClassAuthentic
	case model.VerdictFake:
		return ClassFake
	}
	return ClassUncertain
}

// Percent formats a confidence for display and as a CSS width, e.g. "87.5%".
func Percent(v float64) string {
	s := strconv.FormatFloat(model.ClampPercent(v), 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}

// FrameLabel is the caption under a frame bar, e.g. "3s: 42.0%".
func FrameLabel(timestamp, confidence float64) string {
	return fmt.Sprintf("%ss: %.1f%%", strconv.FormatFloat(timestamp, 'f', -1, 64), model.ClampPercent(confidence))
}
