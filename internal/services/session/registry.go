package session

import (
	"context"
	"sync"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
)

type entry struct {
	pages    map[model.MediaKind]*Page
	lastSeen time.Time
}

// Registry holds the pages of every live browser session.
type Registry struct {
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*entry

	changeMu sync.RWMutex
	onChange []ChangeFunc
}

// NewRegistry creates a registry whose sessions expire after ttl without
// activity. A zero ttl keeps sessions forever.
func NewRegistry(ttl time.Duration, logger *logger.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*entry),
	}
}

// OnChange registers fn to be called after every accepted state change.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()
	r.onChange = append(r.onChange, fn)
}

func (r *Registry) notify(sessionID string, snap Snapshot) {
	r.changeMu.RLock()
	defer r.changeMu.RUnlock()
	for _, fn := range r.onChange {
		fn(sessionID, snap)
	}
}

// Page returns the page of kind in sessionID, creating both as needed.
func (r *Registry) Page(sessionID string, kind model.MediaKind) *Page {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{pages: make(map[model.MediaKind]*Page)}
		r.sessions[sessionID] = e
	}
	e.lastSeen = r.now()

	p, ok := e.pages[kind]
	if !ok {
		p = &Page{sessionID: sessionID, kind: kind, registry: r, state: StateIdle, updatedAt: r.now()}
		e.pages[kind] = p
	}
	return p
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than the TTL. Sessions with an
// analysis in flight are kept.
func (r *Registry) Evict() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, e := range r.sessions {
		if e.lastSeen.After(cutoff) {
			continue
		}
		busy := false
		for _, p := range e.pages {
			if p.busy() {
				busy = true
				break
			}
		}
		if busy {
			continue
		}
		for _, p := range e.pages {
			p.stop()
		}
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}

// Run evicts expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Info("Evicted %d idle session(s)", n)
			}
		}
	}
}

// Close cancels every in-flight analysis.
func (r *Registry) Close() {
	r.cancel()
}
