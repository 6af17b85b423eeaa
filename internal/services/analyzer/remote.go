package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
)

// Remote forwards uploads to an external detection service exposing
// /analyze-image and /analyze-video.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote creates a client for baseURL. A zero timeout waits indefinitely.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Remote) Name() string { return "remote" }

func (c *Remote) AnalyzeImage(ctx context.Context, req Request) (*model.Analysis, error) {
	return c.post(ctx, "/analyze-image", model.KindImage, req)
}

func (c *Remote) AnalyzeVideo(ctx context.Context, req Request) (*model.Analysis, error) {
	return c.post(ctx, "/analyze-video", model.KindVideo, req)
}

func (c *Remote) post(ctx context.Context, path string, kind model.MediaKind, req Request) (*model.Analysis, error) {
	body, contentType, err := multipartBody(req.File)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var result dto.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", path, err)
	}
	req.Progress.Report(1, 1)

	analysis := result.Normalize(kind)
	analysis.ID = 0
	if analysis.Analyzer == "" {
		analysis.Analyzer = c.Name()
	}
	analysis.CreatedAt = time.Now()
	return analysis, nil
}

func multipartBody(file *model.UploadedFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, intake.FormField, file.Name))
	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("writing multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
