package session

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/antique-korea/appraiser/internal/analysis"
	"github.com/antique-korea/appraiser/internal/clock"
	"github.com/antique-korea/appraiser/internal/history"
	"github.com/antique-korea/appraiser/internal/models"
	"github.com/antique-korea/appraiser/internal/quota"
	"github.com/antique-korea/appraiser/internal/storage"
)

// View is one of the closed set of UI modes.
type View string

const (
	ViewHome    View = "home"
	ViewResult  View = "result"
	ViewMuseum  View = "museum"
	ViewLibrary View = "library"
	ViewAbout   View = "about"
)

// navigable reports whether v is a valid Navigate target. The result view
// is only reachable through Submit or SelectItem.
func (v View) navigable() bool {
	switch v {
	case ViewHome, ViewMuseum, ViewLibrary, ViewAbout:
		return true
	}
	return false
}

// ErrBusy is returned when a submission arrives while another is in
// flight. Only one appraisal runs at a time.
var ErrBusy = errors.New("an appraisal is already in progress")

const keyAgreed = "user_has_agreed_disclaimer"

// Snapshot is the presentation-facing state after an operation.
type Snapshot struct {
	View    View                    `json:"view"`
	Loading bool                    `json:"loading"`
	Current *models.AppraisalResult `json:"current,omitempty"`
	Quota   quota.Snapshot          `json:"quota"`
}

// Status reports the analysis configuration, distinct from any transient
// provider failure.
type Status struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
	Agreed     bool   `json:"agreed"`
}

// Manager coordinates the quota tracker, analysis client and history store
// and owns the view state machine. All state transitions go through its
// methods; registered observers are notified after each change.
type Manager struct {
	analyzer *analysis.Client
	quota    *quota.Tracker
	history  *history.Store
	store    storage.Store
	clock    clock.Clock

	mu        sync.Mutex
	view      View
	loading   bool
	current   *models.AppraisalResult
	listeners []func(Snapshot)
}

func NewManager(analyzer *analysis.Client, tracker *quota.Tracker, hist *history.Store, store storage.Store, clk clock.Clock) *Manager {
	return &Manager{
		analyzer: analyzer,
		quota:    tracker,
		history:  hist,
		store:    store,
		clock:    clk,
		view:     ViewHome,
	}
}

// OnChange registers an observer called with the new state after every
// transition.
func (m *Manager) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Submit runs one appraisal: quota pre-flight, analysis, then in one
// logical step quota consumption, history append and the transition to the
// result view. On any failure the state machine is left exactly as it was.
func (m *Manager) Submit(ctx context.Context, images []models.Image, cfg models.AppraisalConfig) (*models.AppraisalResult, error) {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	if !m.quota.CanConsume() {
		m.mu.Unlock()
		return nil, quota.ErrLimitReached
	}
	m.loading = true
	m.mu.Unlock()
	m.notify()

	appraisal, err := m.analyzer.Analyze(ctx, images, cfg)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.mu.Unlock()
		m.notify()
		return nil, err
	}

	if _, qerr := m.quota.Consume(); qerr != nil {
		if errors.Is(qerr, quota.ErrLimitReached) {
			// Another writer exhausted the quota while we were in
			// flight. Reject rather than overspend.
			m.mu.Unlock()
			m.notify()
			return nil, qerr
		}
		slog.Warn("Quota persist failed, keeping in-memory count", "error", qerr)
	}

	result := m.buildResult(appraisal, images)
	if herr := m.history.Append(result); herr != nil {
		slog.Warn("History persist failed, keeping in-memory entry", "error", herr)
	}
	m.current = &result
	m.view = ViewResult
	m.mu.Unlock()
	m.notify()

	slog.Info("Appraisal completed", "id", result.ID, "title", result.Title)
	return &result, nil
}

func (m *Manager) buildResult(a *analysis.Appraisal, images []models.Image) models.AppraisalResult {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, "data:"+img.MIMEType+";base64,"+base64.StdEncoding.EncodeToString(img.Data))
	}
	return models.AppraisalResult{
		ID:              uuid.NewString(),
		Title:           a.Title,
		Category:        a.Category,
		Era:             a.Era,
		EstimatedValue:  a.EstimatedValue,
		Description:     a.Description,
		ConfidenceScore: a.Confidence,
		ImageURLs:       urls,
		Timestamp:       m.clock.Now().UnixMilli(),
	}
}

// Navigate switches to one of the unconditional views. Unknown or guarded
// views are a defensive no-op.
func (m *Manager) Navigate(v View) Snapshot {
	m.mu.Lock()
	if v.navigable() {
		m.view = v
	}
	m.mu.Unlock()
	m.notify()
	return m.Snapshot()
}

// SelectItem looks up a past appraisal and, when found, makes it current
// and moves to the result view. An unknown id changes nothing.
func (m *Manager) SelectItem(id string) (models.AppraisalResult, bool) {
	result, ok := m.history.FindByID(id)
	if !ok {
		return models.AppraisalResult{}, false
	}

	m.mu.Lock()
	m.current = &result
	m.view = ViewResult
	m.mu.Unlock()
	m.notify()
	return result, true
}

// Find returns a past appraisal by id without changing any state.
func (m *Manager) Find(id string) (models.AppraisalResult, bool) {
	return m.history.FindByID(id)
}

// Reset returns from the result view to home.
func (m *Manager) Reset() Snapshot {
	m.mu.Lock()
	m.view = ViewHome
	m.mu.Unlock()
	m.notify()
	return m.Snapshot()
}

// Snapshot returns the current presentation state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotUnlocked()
}

func (m *Manager) snapshotUnlocked() Snapshot {
	snap := Snapshot{
		View:    m.view,
		Loading: m.loading,
		Quota:   m.quota.Snapshot(),
	}
	if m.current != nil {
		c := *m.current
		snap.Current = &c
	}
	return snap
}

// History returns the ordered appraisal history, most recent first.
func (m *Manager) History() []models.AppraisalResult {
	return m.history.All()
}

// Quota returns the current quota snapshot.
func (m *Manager) Quota() quota.Snapshot {
	return m.quota.Snapshot()
}

// Status reports provider readiness and the disclaimer agreement flag.
func (m *Manager) Status() Status {
	return Status{
		Provider:   m.analyzer.Provider().Name(),
		Model:      m.analyzer.Model(),
		Configured: m.analyzer.Provider().Configured(),
		Agreed:     m.HasAgreed(),
	}
}

// HasAgreed reports whether the user accepted the disclaimer.
func (m *Manager) HasAgreed() bool {
	v, ok := m.store.Get(keyAgreed)
	return ok && v == "true"
}

// Agree records the disclaimer agreement.
func (m *Manager) Agree() {
	if err := m.store.Set(keyAgreed, "true"); err != nil {
		slog.Warn("Agreement persist failed", "error", err)
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	listeners := make([]func(Snapshot), len(m.listeners))
	copy(listeners, m.listeners)
	snap := m.snapshotUnlocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
