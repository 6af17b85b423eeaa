// Package services coordinates uploads, analyzers, page state and history.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tejaspavanb/DeepFake/internal/config"
	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/repository"
	"github.com/tejaspavanb/DeepFake/internal/services/analyzer"
	"github.com/tejaspavanb/DeepFake/internal/services/media"
	"github.com/tejaspavanb/DeepFake/internal/services/session"
	"github.com/tejaspavanb/DeepFake/internal/services/storage"
	"github.com/tejaspavanb/DeepFake/internal/services/websocket"
)

var (
	ErrQueueFull  = errors.New("analysis queue is full, try again shortly")
	ErrSuperseded = errors.New("analysis superseded by a newer submission")
	ErrStopped    = errors.New("analysis manager is shutting down")
)

// RepeatDistance is the largest perceptual hash distance at which two images
// count as the same picture.
const RepeatDistance = 6

// PreviouslyAnalyzedKey is the metadata row added to repeat images.
const PreviouslyAnalyzedKey = "previously analyzed"

type Manager struct {
	analyzer         analyzer.Analyzer
	uploadStore      *storage.UploadStore
	history          repository.AnalysisRepository
	sessions         *session.Registry
	websocketService *websocket.HubService
	logger           *logger.Logger

	processingQueue chan analysisTask
	numWorkers      int

	stopMu  sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type analysisTask struct {
	ctx   context.Context
	page  *session.Page
	token session.Token
	file  *model.UploadedFile
	done  chan outcome
}

type outcome struct {
	result *model.Analysis
	err    error
}

// Ticket tracks one submitted analysis.
type Ticket struct {
	Token      session.Token
	PreviewURL string
	done       <-chan outcome
}

// Wait blocks until the analysis finishes or ctx is done. A superseded
// analysis returns ErrSuperseded.
func (t *Ticket) Wait(ctx context.Context) (*model.Analysis, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-t.done:
		return o.result, o.err
	}
}

func NewManager(a analyzer.Analyzer, uploadStore *storage.UploadStore, history repository.AnalysisRepository, sessions *session.Registry, websocketService *websocket.HubService, cfg *config.Config, logger *logger.Logger) *Manager {
	m := &Manager{
		analyzer:         a,
		uploadStore:      uploadStore,
		history:          history,
		sessions:         sessions,
		websocketService: websocketService,
		numWorkers:       cfg.ProcessingWorkers,
		processingQueue:  make(chan analysisTask, max(cfg.QueueSize, 1)),
		logger:           logger,
	}

	if websocketService != nil {
		sessions.OnChange(m.publishState)
	}

	for i := 0; i < m.numWorkers; i++ {
		m.wg.Add(1)
		go m.processingWorker(i)
	}

	m.logger.Info("🎬 Manager started - %d worker(s), %s analyzer", m.numWorkers, a.Name())
	return m
}

func (m *Manager) Analyzer() analyzer.Analyzer {
	return m.analyzer
}

func (m *Manager) Sessions() *session.Registry {
	return m.sessions
}

func (m *Manager) UploadStore() *storage.UploadStore {
	return m.uploadStore
}

func (m *Manager) History() repository.AnalysisRepository {
	return m.history
}

func (m *Manager) WebsocketService() *websocket.HubService {
	return m.websocketService
}

// Submit stores file for preview, makes it the current selection of the
// caller's page and queues it for analysis. Any analysis still running for
// that page is cancelled.
func (m *Manager) Submit(sessionID string, file *model.UploadedFile) (*Ticket, error) {
	m.stopMu.RLock()
	defer m.stopMu.RUnlock()
	if m.stopped {
		return nil, ErrStopped
	}

	if err := m.uploadStore.Save(file); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	page := m.sessions.Page(sessionID, file.Kind)
	token, ctx := page.Begin(file)

	done := make(chan outcome, 1)
	select {
	case m.processingQueue <- analysisTask{ctx: ctx, page: page, token: token, file: file, done: done}:
		m.logger.Info("📥 %s %s queued (generation %d)", file.Kind, file.Name, token.Generation)
	default:
		m.logger.Warning("⚠️  Processing queue full - rejecting %s", file.Name)
		page.Fail(token, ErrQueueFull)
		return nil, ErrQueueFull
	}

	return &Ticket{Token: token, PreviewURL: file.PreviewURL(), done: done}, nil
}

func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("🔧 Processing worker %d started", workerID)

	for task := range m.processingQueue {
		result, err := m.process(task)
		task.done <- outcome{result: result, err: err}
	}

	m.logger.Info("🔧 Processing worker %d stopped", workerID)
}

func (m *Manager) process(task analysisTask) (*model.Analysis, error) {
	if task.ctx.Err() != nil {
		return nil, ErrSuperseded
	}

	start := time.Now()
	result, err := analyzer.Analyze(task.ctx, m.analyzer, analyzer.Request{
		File: task.file,
		Progress: func(done, total int) {
			m.publishProgress(task.token, done, total)
		},
	})
	if err != nil {
		if task.ctx.Err() != nil && !task.page.Current(task.token) {
			m.logger.Info("⏭️  %s superseded before finishing", task.file.Name)
			return nil, ErrSuperseded
		}
		m.logger.Error("Analysis of %s failed: %v", task.file.Name, err)
		task.page.Fail(task.token, err)
		return nil, err
	}

	settled := task.page.Settle(task.token, result, func() {
		m.markRepeat(result)
		if _, err := m.history.Insert(result); err != nil {
			m.logger.Error("Failed to record analysis of %s: %v", task.file.Name, err)
		}
	})
	if !settled {
		m.logger.Info("⏭️  Discarding stale result for %s", task.file.Name)
		return result, ErrSuperseded
	}

	m.logger.Info("✅ %s: %s (%.2f%%) in %s", task.file.Name, result.Verdict, result.Confidence, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// markRepeat adds a metadata row when an image was analysed before.
func (m *Manager) markRepeat(result *model.Analysis) {
	if result.Kind != model.KindImage || result.Hash == "" {
		return
	}

	records, err := m.history.GetHashes(model.KindImage)
	if err != nil {
		m.logger.Warning("Repeat detection skipped: %v", err)
		return
	}
	for _, rec := range records {
		dist, err := media.HashDistance(result.Hash, rec.Hash)
		if err != nil || dist > RepeatDistance {
			continue
		}
		result.Metadata.Set(PreviouslyAnalyzedKey, fmt.Sprintf("%s on %s", rec.Filename, rec.CreatedAt.Local().Format(media.TimeLayout)))
		return
	}
}

func (m *Manager) publishState(sessionID string, snap session.Snapshot) {
	m.websocketService.Publish(sessionID, StateEvent(snap))
}

// StateEvent describes a page snapshot the way /api/events and
// /api/session/{kind} report it.
func StateEvent(snap session.Snapshot) dto.PageEvent {
	event := dto.PageEvent{
		Type:       dto.EventState,
		Kind:       string(snap.Kind),
		Generation: snap.Generation,
		State:      string(snap.State),
		Filename:   snap.Filename,
		PreviewURL: snap.PreviewURL,
		Error:      snap.Error,
	}
	if snap.Result != nil {
		resp := dto.FromAnalysis(snap.Result)
		resp.Generation = snap.Generation
		event.Result = &resp
	}
	return event
}

func (m *Manager) publishProgress(token session.Token, done, total int) {
	if m.websocketService == nil {
		return
	}
	m.websocketService.Publish(token.SessionID, dto.PageEvent{
		Type:       dto.EventProgress,
		Kind:       string(token.Kind),
		Generation: token.Generation,
		Done:       done,
		Total:      total,
	})
}

// DeleteAnalysis removes one history entry and its stored upload. It
// reports false when the entry does not exist.
func (m *Manager) DeleteAnalysis(id int64) (bool, error) {
	a, err := m.history.GetByID(id)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, nil
	}
	if err := m.history.Delete(id); err != nil {
		return false, err
	}
	if a.StoredName != "" {
		if err := m.uploadStore.Remove(a.StoredName); err != nil {
			m.logger.Warning("Failed to remove upload %s: %v", a.StoredName, err)
		}
	}
	return true, nil
}

// ClearHistory removes every history entry and stored upload.
func (m *Manager) ClearHistory() error {
	if err := m.history.DeleteAll(); err != nil {
		return err
	}
	return m.uploadStore.Clear()
}

// HandlePruned drops history entries whose uploads were pruned from disk.
func (m *Manager) HandlePruned(names []string) {
	n, err := m.history.DeleteByStoredNames(names)
	if err != nil {
		m.logger.Error("Failed to drop pruned analyses: %v", err)
		return
	}
	if n > 0 {
		m.logger.Info("🧹 Dropped %d analyses of pruned uploads", n)
	}
}

// Stop rejects new submissions and waits for queued analyses to finish.
func (m *Manager) Stop() {
	m.stopMu.Lock()
	if m.stopped {
		m.stopMu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.stopMu.Unlock()

	m.wg.Wait()
	m.logger.Info("🛑 All processing workers stopped")
}
