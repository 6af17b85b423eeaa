// Package analyzer turns an accepted upload into an analysis result.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

// ProgressFunc reports that done of total units of work are finished.
type ProgressFunc func(done, total int)

// Report calls f when it is set.
func (f ProgressFunc) Report(done, total int) {
	if f != nil {
		f(done, total)
	}
}

// Request is a single analysis job.
type Request struct {
	File     *model.UploadedFile
	Progress ProgressFunc
}

// Analyzer produces a verdict for an image or a video.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, req Request) (*model.Analysis, error)
	AnalyzeVideo(ctx context.Context, req Request) (*model.Analysis, error)
	Name() string
}

// Analyze dispatches on the file kind and stamps the result with the file and
// analyzer identity.
func Analyze(ctx context.Context, a Analyzer, req Request) (*model.Analysis, error) {
	if req.File == nil {
		return nil, fmt.Errorf("analyze: no file")
	}

	var (
		result *model.Analysis
		err    error
	)
	switch req.File.Kind {
	case model.KindImage:
		result, err = a.AnalyzeImage(ctx, req)
	case model.KindVideo:
		result, err = a.AnalyzeVideo(ctx, req)
	default:
		return nil, fmt.Errorf("analyze: unknown media kind %q", req.File.Kind)
	}
	if err != nil {
		return nil, err
	}

	result.AttachFile(req.File)
	result.Confidence = model.ClampPercent(result.Confidence)
	if result.Analyzer == "" {
		result.Analyzer = a.Name()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	return result, nil
}
