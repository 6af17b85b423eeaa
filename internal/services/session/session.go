// Package session tracks the state of each analysis page a browser has open.
//
// A page moves idle → loading → settled. Every submission starts a new
// generation and cancels the one before it, so only the newest submission can
// settle the page.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/model"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSettled State = "settled"
)

// Token identifies one submission on a page.
type Token struct {
	SessionID  string
	Kind       model.MediaKind
	Generation uint64
}

// Snapshot is a copy of a page's state safe to hand to other goroutines.
type Snapshot struct {
	Kind       model.MediaKind `json:"kind"`
	State      State           `json:"state"`
	Generation uint64          `json:"generation"`
	Filename   string          `json:"filename,omitempty"`
	PreviewURL string          `json:"preview_url,omitempty"`
	Result     *model.Analysis `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ChangeFunc observes every accepted state change.
type ChangeFunc func(sessionID string, snap Snapshot)

// Page is the state of one analysis page in one browser session.
type Page struct {
	sessionID string
	kind      model.MediaKind
	registry  *Registry

	mu         sync.Mutex
	state      State
	generation uint64
	file       *model.UploadedFile
	result     *model.Analysis
	err        string
	cancel     context.CancelFunc
	updatedAt  time.Time
}

// Begin records file as the page's current selection and moves the page to
// loading. Any in-flight analysis for the page is cancelled. The returned
// context is cancelled when the submission is superseded or the registry
// closes. The page keeps the file without its content.
func (p *Page) Begin(file *model.UploadedFile) (Token, context.Context) {
	ctx, cancel := context.WithCancel(p.registry.ctx)
	kept := *file
	kept.Data = nil

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	p.state = StateLoading
	p.file = &kept
	p.result = nil
	p.err = ""
	p.cancel = cancel
	p.updatedAt = p.registry.now()
	token := Token{SessionID: p.sessionID, Kind: p.kind, Generation: p.generation}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.registry.notify(p.sessionID, snap)
	return token, ctx
}

// Complete settles the page with result if token is still current. It
// reports whether the result was applied.
func (p *Page) Complete(token Token, result *model.Analysis) bool {
	return p.Settle(token, result, nil)
}

// Settle is Complete with a record step that runs only for the current token,
// before the result becomes visible. No newer submission can begin while
// record runs; it must not call back into the page.
func (p *Page) Settle(token Token, result *model.Analysis, record func()) bool {
	return p.finish(token, func() {
		if record != nil {
			record()
		}
		p.state = StateSettled
		p.result = result
	})
}

// Fail returns the page to idle with the file kept and err shown, if token is
// still current.
func (p *Page) Fail(token Token, err error) bool {
	return p.finish(token, func() {
		p.state = StateIdle
		p.err = err.Error()
	})
}

func (p *Page) finish(token Token, apply func()) bool {
	p.mu.Lock()
	if token.Generation != p.generation || p.state != StateLoading {
		p.mu.Unlock()
		return false
	}
	apply()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.updatedAt = p.registry.now()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.registry.notify(p.sessionID, snap)
	return true
}

// Current reports whether token is the page's newest submission.
func (p *Page) Current(token Token) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return token.Generation == p.generation
}

func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Page) snapshotLocked() Snapshot {
	snap := Snapshot{
		Kind:       p.kind,
		State:      p.state,
		Generation: p.generation,
		Result:     p.result,
		Error:      p.err,
		UpdatedAt:  p.updatedAt,
	}
	if p.file != nil {
		snap.Filename = p.file.Name
		snap.PreviewURL = p.file.PreviewURL()
	}
	return snap
}

func (p *Page) busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateLoading
}

func (p *Page) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
