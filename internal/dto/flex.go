package dto

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string, number or boolean and keeps its text.
// External detectors are inconsistent about quoting numeric fields.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatBool(b))
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// ParsePercent interprets a confidence value. "87.5%", "1%" and "87.5" are
// percentages; a bare number in (0, 1] such as "0.875" or "1" is a fraction
// and is scaled to a percentage. The result is clamped to [0, 100].
func ParsePercent(f FlexString) (float64, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	hasPercent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if !hasPercent && v > 0 && v <= 1 {
		v *= 100
	}
	return clamp(v), true
}

// ParseCount interprets a frame counter, returning 0 when unparsable.
func ParseCount(f FlexString) int {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 && !math.IsInf(v, 0) {
		return int(v)
	}
	return 0
}

// FormatPercent renders a confidence the way the pages expect it, e.g. "87.50%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(clamp(v), 'f', 2, 64) + "%"
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
