package model

import (
	"encoding/json"
	"testing"
)

func TestMetadata_JSONKeepsOrder(t *testing.T) {
	input := `{"size":"1.2 MB","dimensions":"640x480","format":"image/jpeg","fps":30,"flag":true,"none":null}`

	var m Metadata
	if err := json.Unmarshal([]byte(input), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	wantKeys := []string{"size", "dimensions", "format", "fps", "flag", "none"}
	if len(m) != len(wantKeys) {
		t.Fatalf("Expected %d rows, got %d", len(wantKeys), len(m))
	}
	for i, k := range wantKeys {
		if m[i].Key != k {
			t.Errorf("Row %d: expected key %q, got %q", i, k, m[i].Key)
		}
	}
	if v, _ := m.Get("fps"); v != "30" {
		t.Errorf("Expected fps 30, got %q", v)
	}
	if v, _ := m.Get("flag"); v != "true" {
		t.Errorf("Expected flag true, got %q", v)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"size":"1.2 MB","dimensions":"640x480","format":"image/jpeg","fps":"30","flag":"true","none":""}`
	if string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}

func TestMetadata_RejectsNonObject(t *testing.T) {
	var m Metadata
	if err := json.Unmarshal([]byte(`["a","b"]`), &m); err == nil {
		t.Error("Expected error for array metadata")
	}
}

func TestMetadata_SetReplaces(t *testing.T) {
	var m Metadata
	m.Set("format", "image/png")
	m.Set("size", "2 kB")
	m.Set("format", "image/jpeg")

	if len(m) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(m))
	}
	if m[0].Value != "image/jpeg" {
		t.Errorf("Expected replaced value in place, got %+v", m)
	}
}

func TestParseVerdict(t *testing.T) {
	tests := map[string]Verdict{
		"Fake":  VerdictFake,
		" real": VerdictReal,
		"FAKE":  VerdictFake,
		"":      VerdictUnknown,
		"maybe": VerdictUnknown,
	}
	for in, want := range tests {
		if got := ParseVerdict(in); got != want {
			t.Errorf("ParseVerdict(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestAnalysis_CountFrames(t *testing.T) {
	a := Analysis{Frames: []FrameVerdict{{IsDeepfake: true}, {IsDeepfake: true}, {IsDeepfake: false}}}
	a.CountFrames()
	if a.FakeFrames != 2 || a.RealFrames != 1 {
		t.Errorf("Expected 2 fake / 1 real, got %d/%d", a.FakeFrames, a.RealFrames)
	}
}

func TestClampPercent(t *testing.T) {
	if ClampPercent(-1) != 0 || ClampPercent(101) != 100 || ClampPercent(55.5) != 55.5 {
		t.Error("ClampPercent did not clamp to [0,100]")
	}
}
