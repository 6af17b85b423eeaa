// Package intake accepts exactly one media file per request and decides
// whether it belongs on the image or the video page.
package intake

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
)

// FormField is the multipart field carrying the file.
const FormField = "file"

var (
	ErrNoFile          = errors.New("no file selected")
	ErrEmptyFile       = errors.New("selected file is empty")
	ErrTooLarge        = errors.New("file exceeds upload limit")
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrUnknownKind     = errors.New("cannot tell whether file is an image or a video")
)

type filter struct {
	extensions []string
	mimeTypes  []string
}

var filters = map[model.MediaKind]filter{
	model.KindImage: {
		extensions: []string{".jpg", ".jpeg", ".png"},
		mimeTypes:  []string{"image/jpeg", "image/png"},
	},
	model.KindVideo: {
		extensions: []string{".mp4", ".webm", ".mov"},
		mimeTypes:  []string{"video/mp4", "video/webm", "video/quicktime"},
	},
}

// Accept returns the HTML accept attribute for a page's file input.
func Accept(kind model.MediaKind) string {
	f := filters[kind]
	return strings.Join(append(slices.Clone(f.mimeTypes), f.extensions...), ",")
}

// Policy controls how strictly uploads are checked.
type Policy struct {
	MaxBytes int64
	// Enforce rejects files outside the page's type filter. When false the
	// filter is advisory and mismatches are only logged.
	Enforce bool
}

// Intake parses uploads according to a Policy.
type Intake struct {
	policy Policy
	logger *logger.Logger
}

func New(policy Policy, logger *logger.Logger) *Intake {
	return &Intake{policy: policy, logger: logger}
}

// Parse reads the single file in the request's "file" field. An empty kind
// means the kind is detected from the content.
func (in *Intake) Parse(w http.ResponseWriter, r *http.Request, kind model.MediaKind) (*model.UploadedFile, error) {
	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, in.policy.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) || errors.Is(err, io.EOF) {
			return nil, ErrNoFile
		}
		return nil, fmt.Errorf("parsing upload: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile(FormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrNoFile
		}
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	defer part.Close()

	if header.Filename == "" {
		return nil, ErrNoFile
	}
	if header.Size > in.policy.MaxBytes {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(part, in.policy.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return in.build(header.Filename, header.Header.Get("Content-Type"), data, kind)
}

// FromPath loads a local file the same way an upload would be accepted.
func (in *Intake) FromPath(path string, kind model.MediaKind) (*model.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	file, err := in.build(filepath.Base(path), "", data, kind)
	if err != nil {
		return nil, err
	}
	file.Path = path
	return file, nil
}

func (in *Intake) build(name, declared string, data []byte, kind model.MediaKind) (*model.UploadedFile, error) {
	if int64(len(data)) > in.policy.MaxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mimeType, sniffed := SniffMIME(data, declared, name)
	if kind == "" {
		kind = DetectKind(mimeType)
		if kind == "" {
			return nil, ErrUnknownKind
		}
	}

	if !Allowed(kind, mimeType, sniffed, name) {
		if in.policy.Enforce {
			return nil, fmt.Errorf("%w: %s (%s) on %s page", ErrUnsupportedType, name, mimeType, kind)
		}
		in.logger.Warning("Accepting %s (%s) outside the %s filter", name, mimeType, kind)
	}

	return &model.UploadedFile{
		ID:         uuid.NewString(),
		Name:       name,
		Size:       int64(len(data)),
		MIMEType:   mimeType,
		Kind:       kind,
		Data:       data,
		ReceivedAt: time.Now(),
	}, nil
}

// SniffMIME determines the MIME type from content, then the declared type,
// then the extension. sniffed reports whether the content was recognised.
func SniffMIME(data []byte, declared, name string) (mimeType string, sniffed bool) {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value, true
	}
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt, false
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt, false
		}
	}
	return "application/octet-stream", false
}

// DetectKind maps a MIME type to the page that analyses it.
func DetectKind(mimeType string) model.MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return model.KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return model.KindVideo
	}
	return ""
}

// Allowed reports whether a file passes a page's type filter. Recognised
// content must carry an accepted MIME type; unrecognised content falls back
// to the extension.
func Allowed(kind model.MediaKind, mimeType string, sniffed bool, name string) bool {
	f, ok := filters[kind]
	if !ok {
		return false
	}
	if slices.Contains(f.mimeTypes, mimeType) {
		return true
	}
	if sniffed {
		return false
	}
	return slices.Contains(f.extensions, strings.ToLower(filepath.Ext(name)))
}
