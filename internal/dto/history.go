package dto

import (
	"encoding/json"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

// HistoryItem is one stored analysis in the history listing.
type HistoryItem struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Filename   string    `json:"filename"`
	Verdict    string    `json:"verdict"`
	Confidence string    `json:"confidence"`
	PreviewURL string    `json:"preview_url"`
	Date       time.Time `json:"date"`
	TimeOfDay  time.Time `json:"timeOfDay"`
}

// MarshalJSON customizes JSON output for HistoryItem to format date and time-of-day.
func (h HistoryItem) MarshalJSON() ([]byte, error) {
	type Alias HistoryItem
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      h.Date.Format("02-01-2006"),
		TimeOfDay: h.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(h),
	})
}

// NewHistoryItem summarises an analysis for the listing.
func NewHistoryItem(a model.Analysis) HistoryItem {
	item := HistoryItem{
		ID:         a.ID,
		Kind:       string(a.Kind),
		Filename:   a.Filename,
		Verdict:    string(a.Verdict),
		Confidence: FormatPercent(a.Confidence),
		Date:       a.CreatedAt,
		TimeOfDay:  a.CreatedAt,
	}
	if a.StoredName != "" {
		item.PreviewURL = "/uploads/" + a.StoredName
	}
	return item
}

// HistoryData is a paginated response payload for the analysis history.
type HistoryData struct {
	Items       []HistoryItem `json:"items"`
	Size        int64         `json:"size"`
	Length      int           `json:"length"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Limit       int           `json:"pageSize"`
}
