package handlers

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/h2non/filetype"

	"github.com/tejaspavanb/DeepFake/internal/services/storage"
)

// ViewUploadHandler serves a stored upload for preview. Names that would
// leave the upload directory are rejected. Only content sniffed as an image
// or video is served inline; anything else is sent as an attachment.
func ViewUploadHandler(uploadStore *storage.UploadStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := uploadStore.Resolve(chi.URLParam(r, "name"))
		if err != nil {
			http.Error(w, "Invalid file name", http.StatusBadRequest)
			return
		}
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "private, max-age=3600")
		if contentType, ok := previewType(path); ok {
			w.Header().Set("Content-Type", contentType)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(path)}))
		}
		http.ServeFile(w, r, path)
	}
}

// previewType sniffs the stored file and reports its MIME type when it is
// safe to render inline.
func previewType(path string) (string, bool) {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	value := kind.MIME.Value
	if strings.Contains(value, "svg") {
		return "", false
	}
	if strings.HasPrefix(value, "image/") || strings.HasPrefix(value, "video/") {
		return value, true
	}
	return "", false
}
