package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"medianav/domain/contracts"
	"medianav/domain/events"
	"medianav/domain/media"
	"medianav/domain/paging"
	"medianav/logging"
	platformevents "medianav/platform/events"
)

// ErrSessionNotFound is returned for unknown or closed session IDs.
var ErrSessionNotFound = errors.New("browse session not found")

// SourceProvider creates the catalog source for each new session
type SourceProvider interface {
	CreateSource() (contracts.Source[media.Item], error)
}

// SessionRegistrar is notified of every new session. The returned function is
// called when the session closes.
type SessionRegistrar interface {
	RegisterSession(sessionID string, session platformevents.SessionEvents) func()
}

// BrowseSession is one client's paged view over the catalog.
type BrowseSession struct {
	ID           string
	CreatedAt    time.Time
	Orchestrator *PageOrchestrator[media.Item]
	Controller   *WindowController[media.Item]

	lastSeen   atomic.Int64
	unregister func()
	closeOnce  sync.Once
}

// Touch marks the session as active
func (s *BrowseSession) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen returns the last time the session was used
func (s *BrowseSession) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// OnFetchFailed subscribes to page load failures
func (s *BrowseSession) OnFetchFailed(handler func(events.PageFetchFailedEvent)) func() {
	return s.Orchestrator.OnFetchFailed(handler)
}

// OnWindowChanged calls handler whenever the loaded items or flags change.
func (s *BrowseSession) OnWindowChanged(handler func()) func() {
	offItems := s.Controller.LoadedItems().Subscribe(func([]paging.Slot[media.Item]) { handler() })
	offLoading := s.Controller.IsLoading().Subscribe(func(bool) { handler() })
	offJumping := s.Controller.IsJumping().Subscribe(func(bool) { handler() })
	return func() {
		offItems()
		offLoading()
		offJumping()
	}
}

// Snapshot returns the current window
func (s *BrowseSession) Snapshot() WindowSnapshot[media.Item] {
	return s.Controller.Snapshot()
}

func (s *BrowseSession) close() {
	s.closeOnce.Do(func() {
		if s.unregister != nil {
			s.unregister()
		}
		s.Controller.Close()
		s.Orchestrator.Close()
	})
}

// BrowseService owns the live browse sessions
type BrowseService struct {
	sources     SourceProvider
	settings    paging.Settings
	registrar   SessionRegistrar
	idleTimeout time.Duration
	logger      *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*BrowseSession
}

// NewBrowseService creates a session service. registrar may be nil. An
// idleTimeout of zero disables idle cleanup.
func NewBrowseService(sources SourceProvider, settings paging.Settings, registrar SessionRegistrar, idleTimeout time.Duration) *BrowseService {
	return &BrowseService{
		sources:     sources,
		settings:    settings,
		registrar:   registrar,
		idleTimeout: idleTimeout,
		logger:      logging.Default().WithComponent("browse_service"),
		sessions:    make(map[string]*BrowseSession),
	}
}

// Create opens a session and starts loading its first page.
func (s *BrowseService) Create() (*BrowseSession, error) {
	source, err := s.sources.CreateSource()
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	orchestrator, err := NewPageOrchestrator(source, nil, s.settings)
	if err != nil {
		return nil, err
	}

	session := &BrowseSession{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now(),
		Orchestrator: orchestrator,
		Controller:   NewWindowController[media.Item](orchestrator),
	}
	session.Touch()

	if s.registrar != nil {
		session.unregister = s.registrar.RegisterSession(session.ID, session)
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	count := len(s.sessions)
	s.mu.Unlock()

	session.Controller.Start()
	s.logger.WithSession(session.ID).Info("Browse session created", "sessions", count)
	return session, nil
}

// Get returns a live session and marks it active
func (s *BrowseService) Get(id string) (*BrowseSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	session.Touch()
	return session, nil
}

// Scroll reports the visible range of a session and prefetches when the
// range reaches the end of the loaded window.
func (s *BrowseService) Scroll(id string, firstVisible, lastVisible int) (*BrowseSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	session.Controller.UpdateViewingPageFromScroll(firstVisible, lastVisible)
	session.Controller.PrefetchIfNeeded(lastVisible)
	return session, nil
}

// Jump starts a jump in a session
func (s *BrowseService) Jump(id string, page int) (*JumpTask, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Controller.JumpToPage(page), nil
}

// Close closes one session
func (s *BrowseService) Close(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	session.close()
	s.logger.WithSession(id).Info("Browse session closed")
	return nil
}

// CloseAll closes every session
func (s *BrowseService) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*BrowseSession)
	s.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
	if len(sessions) > 0 {
		s.logger.Info("Closed all browse sessions", "count", len(sessions))
	}
}

// CloseIdle closes sessions not used since now minus the idle timeout and
// returns how many were closed.
func (s *BrowseService) CloseIdle(now time.Time) int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTimeout)

	var idle []*BrowseSession
	s.mu.Lock()
	for id, session := range s.sessions {
		if session.LastSeen().Before(cutoff) {
			idle = append(idle, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range idle {
		session.close()
		s.logger.WithSession(session.ID).Debug("Closed idle browse session")
	}
	return len(idle)
}

// RunIdleReaper closes idle sessions every interval until ctx is done.
func (s *BrowseService) RunIdleReaper(ctx context.Context, interval time.Duration) {
	if s.idleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.CloseIdle(now); n > 0 {
				s.logger.Info("Reaped idle browse sessions", "count", n)
			}
		}
	}
}

// Count returns the number of live sessions
func (s *BrowseService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Settings returns the paging settings every session uses
func (s *BrowseService) Settings() paging.Settings {
	return s.settings
}
