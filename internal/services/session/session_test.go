package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
)

func newRegistry(t *testing.T, ttl time.Duration) *Registry {
	t.Helper()
	r := NewRegistry(ttl, logger.NewNop())
	t.Cleanup(r.Close)
	return r
}

func file(name string) *model.UploadedFile {
	return &model.UploadedFile{ID: name, Name: name, StoredName: "abcd1234_" + name, Kind: model.KindImage}
}

func TestPage_Lifecycle(t *testing.T) {
	r := newRegistry(t, 0)
	page := r.Page("s1", model.KindImage)

	if snap := page.Snapshot(); snap.State != StateIdle || snap.Generation != 0 {
		t.Fatalf("New page should be idle, got %+v", snap)
	}

	token, ctx := page.Begin(file("a.png"))
	snap := page.Snapshot()
	if snap.State != StateLoading || snap.PreviewURL != "/uploads/abcd1234_a.png" {
		t.Errorf("Expected loading with preview, got %+v", snap)
	}

	result := &model.Analysis{Verdict: model.VerdictFake, Confidence: 87.5}
	if !page.Complete(token, result) {
		t.Fatal("Complete should apply for the current token")
	}
	snap = page.Snapshot()
	if snap.State != StateSettled || snap.Result != result {
		t.Errorf("Expected settled with result, got %+v", snap)
	}
	if ctx.Err() == nil {
		t.Error("Context should be released once settled")
	}
}

func TestPage_StaleCompletionDiscarded(t *testing.T) {
	r := newRegistry(t, 0)
	page := r.Page("s1", model.KindImage)

	first, firstCtx := page.Begin(file("a.png"))
	second, _ := page.Begin(file("b.png"))

	if firstCtx.Err() == nil {
		t.Error("First submission should be cancelled by the second")
	}
	if page.Complete(first, &model.Analysis{Verdict: model.VerdictReal}) {
		t.Error("Stale completion must be discarded")
	}
	if page.Fail(first, errors.New("late failure")) {
		t.Error("Stale failure must be discarded")
	}
	if page.Current(first) || !page.Current(second) {
		t.Error("Only the second token should be current")
	}

	snap := page.Snapshot()
	if snap.State != StateLoading || snap.Filename != "b.png" || snap.Result != nil {
		t.Errorf("Page should still wait on b.png, got %+v", snap)
	}

	if !page.Complete(second, &model.Analysis{Verdict: model.VerdictFake}) {
		t.Error("Current completion should apply")
	}
	if page.Complete(second, &model.Analysis{Verdict: model.VerdictReal}) {
		t.Error("A settled page should not be settled twice")
	}
}

func TestPage_FailKeepsFile(t *testing.T) {
	r := newRegistry(t, 0)
	page := r.Page("s1", model.KindVideo)

	token, _ := page.Begin(file("clip.mp4"))
	if !page.Fail(token, errors.New("analysis failed")) {
		t.Fatal("Fail should apply for the current token")
	}

	snap := page.Snapshot()
	if snap.State != StateIdle || snap.Error != "analysis failed" || snap.Filename != "clip.mp4" {
		t.Errorf("Expected idle with error and file kept, got %+v", snap)
	}

	// Retrying clears the error.
	page.Begin(file("clip.mp4"))
	if snap := page.Snapshot(); snap.Error != "" || snap.Generation != 2 {
		t.Errorf("Retry should reset error, got %+v", snap)
	}
}

func TestRegistry_PagesAreIndependent(t *testing.T) {
	r := newRegistry(t, 0)

	image := r.Page("s1", model.KindImage)
	video := r.Page("s1", model.KindVideo)
	other := r.Page("s2", model.KindImage)

	if image == video || image == other {
		t.Fatal("Each session and kind should have its own page")
	}
	if r.Page("s1", model.KindImage) != image {
		t.Error("Page should return the existing page")
	}

	token, _ := image.Begin(file("a.png"))
	if video.Snapshot().State != StateIdle || other.Snapshot().State != StateIdle {
		t.Error("Submitting on one page must not touch the others")
	}
	image.Complete(token, &model.Analysis{})
}

func TestRegistry_OnChange(t *testing.T) {
	r := newRegistry(t, 0)

	var mu sync.Mutex
	var states []State
	r.OnChange(func(sessionID string, snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if sessionID == "s1" {
			states = append(states, snap.State)
		}
	})

	page := r.Page("s1", model.KindImage)
	stale, _ := page.Begin(file("a.png"))
	token, _ := page.Begin(file("b.png"))
	page.Complete(stale, &model.Analysis{})
	page.Complete(token, &model.Analysis{})

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateLoading, StateLoading, StateSettled}
	if len(states) != len(want) {
		t.Fatalf("Expected %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("Change %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}

func TestPage_SettleRecordsOnlyCurrent(t *testing.T) {
	r := newRegistry(t, 0)
	page := r.Page("s1", model.KindImage)

	stale, _ := page.Begin(file("a.png"))
	token, _ := page.Begin(file("b.png"))

	var recorded []string
	if page.Settle(stale, &model.Analysis{}, func() { recorded = append(recorded, "a.png") }) {
		t.Error("Stale token should not settle the page")
	}
	if !page.Settle(token, &model.Analysis{}, func() { recorded = append(recorded, "b.png") }) {
		t.Error("Current token should settle the page")
	}
	if len(recorded) != 1 || recorded[0] != "b.png" {
		t.Errorf("Only the current result should be recorded, got %v", recorded)
	}
}

func TestPage_BeginDropsFileContent(t *testing.T) {
	r := newRegistry(t, 0)
	page := r.Page("s1", model.KindImage)

	f := file("a.png")
	f.Data = []byte("pixels")
	page.Begin(f)

	if page.file == nil || page.file.Data != nil {
		t.Errorf("Page should keep the file without its content, got %+v", page.file)
	}
	if f.Data == nil {
		t.Error("Caller's file should keep its content")
	}
	if snap := page.Snapshot(); snap.Filename != "a.png" || snap.PreviewURL != "/uploads/abcd1234_a.png" {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestRegistry_Evict(t *testing.T) {
	r := newRegistry(t, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Page("idle", model.KindImage)
	busy := r.Page("busy", model.KindImage)
	token, ctx := busy.Begin(file("a.png"))

	now = now.Add(2 * time.Minute)
	r.Page("fresh", model.KindVideo)

	if n := r.Evict(); n != 1 {
		t.Errorf("Expected 1 eviction, got %d", n)
	}
	if r.Len() != 2 {
		t.Errorf("Expected busy and fresh sessions to remain, got %d", r.Len())
	}
	if ctx.Err() != nil {
		t.Error("Busy session should not be cancelled")
	}

	busy.Complete(token, &model.Analysis{})
	now = now.Add(2 * time.Minute)
	if n := r.Evict(); n != 2 {
		t.Errorf("Expected 2 evictions once settled, got %d", n)
	}
}

func TestRegistry_CloseCancelsInFlight(t *testing.T) {
	r := NewRegistry(0, logger.NewNop())
	_, ctx := r.Page("s1", model.KindImage).Begin(file("a.png"))

	r.Close()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("Close should cancel in-flight analyses")
	}
}

func TestPage_ConcurrentSubmissions(t *testing.T) {
	r := newRegistry(t, 0)
	page := r.Page("s1", model.KindImage)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, _ := page.Begin(file("a.png"))
			page.Complete(token, &model.Analysis{Verdict: model.VerdictReal})
		}()
	}
	wg.Wait()

	snap := page.Snapshot()
	if snap.Generation != 50 {
		t.Errorf("Expected generation 50, got %d", snap.Generation)
	}
	if snap.State == StateSettled && snap.Result == nil {
		t.Error("Settled page must carry a result")
	}
}
