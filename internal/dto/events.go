package dto

// Event types pushed over /api/events.
const (
	EventState    = "state"
	EventProgress = "progress"
)

// PageEvent is a change on one of the caller's analysis pages.
type PageEvent struct {
	Type       string           `json:"type"`
	Kind       string           `json:"kind"`
	Generation uint64           `json:"generation"`
	State      string           `json:"state,omitempty"`
	Filename   string           `json:"filename,omitempty"`
	PreviewURL string           `json:"preview_url,omitempty"`
	Result     *AnalyzeResponse `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	Done       int              `json:"done,omitempty"`
	Total      int              `json:"total,omitempty"`
}
