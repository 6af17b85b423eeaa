package model

import "time"

// MediaKind identifies which analysis page a file belongs to.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Valid reports whether k is a known media kind.
func (k MediaKind) Valid() bool {
	return k == KindImage || k == KindVideo
}

// ParseKind converts a route or query value into a MediaKind.
func ParseKind(s string) (MediaKind, bool) {
	switch MediaKind(s) {
	case KindImage:
		return KindImage, true
	case KindVideo:
		return KindVideo, true
	}
	return "", false
}

// UploadedFile is a user-selected file accepted by the upload surface.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StoredName string    `json:"stored_name,omitempty"`
	Path       string    `json:"-"`
	Size       int64     `json:"size"`
	MIMEType   string    `json:"mime_type"`
	Kind       MediaKind `json:"kind"`
	Data       []byte    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

// PreviewURL is where the stored copy of the file can be fetched for display.
func (f *UploadedFile) PreviewURL() string {
	if f == nil || f.StoredName == "" {
		return ""
	}
	return "/uploads/" + f.StoredName
}
