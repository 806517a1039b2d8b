package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medianav/domain/contracts"
	"medianav/domain/media"
	"medianav/infrastructure/sources"
	platformevents "medianav/platform/events"
)

type providerFunc func() (contracts.Source[media.Item], error)

func (f providerFunc) CreateSource() (contracts.Source[media.Item], error) { return f() }

func catalogProvider(n, pageSize int) providerFunc {
	catalog := media.Generate(n)
	return func() (contracts.Source[media.Item], error) {
		return sources.NewListSource(catalog, pageSize), nil
	}
}

type recordingRegistrar struct {
	mu           sync.Mutex
	registered   []string
	unregistered []string
	windows      int
}

func (r *recordingRegistrar) RegisterSession(sessionID string, session platformevents.SessionEvents) func() {
	r.mu.Lock()
	r.registered = append(r.registered, sessionID)
	r.mu.Unlock()

	off := session.OnWindowChanged(func() {
		r.mu.Lock()
		r.windows++
		r.mu.Unlock()
	})
	return func() {
		off()
		r.mu.Lock()
		r.unregistered = append(r.unregistered, sessionID)
		r.mu.Unlock()
	}
}

func (r *recordingRegistrar) windowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windows
}

func newTestBrowseService(t *testing.T, provider SourceProvider, registrar SessionRegistrar, idle time.Duration) *BrowseService {
	t.Helper()
	s := NewBrowseService(provider, testSettings(10, 100, 20), registrar, idle)
	t.Cleanup(s.CloseAll)
	return s
}

func TestBrowseService_CreateStartsSession(t *testing.T) {
	registrar := &recordingRegistrar{}
	s := newTestBrowseService(t, catalogProvider(50, 10), registrar, 0)

	session, err := s.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, []string{session.ID}, registrar.registered)

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]int{0}, session.Snapshot().LoadedPages)
	}, waitFor, tick)
	assert.Equal(t, 5, session.Snapshot().TotalPages)
	require.Eventually(t, func() bool { return registrar.windowCount() > 0 }, waitFor, tick)
}

func TestBrowseService_CreateSourceError(t *testing.T) {
	s := newTestBrowseService(t, providerFunc(func() (contracts.Source[media.Item], error) {
		return nil, errors.New("no catalog")
	}), nil, 0)

	_, err := s.Create()
	assert.ErrorContains(t, err, "no catalog")
	assert.Equal(t, 0, s.Count())
}

func TestBrowseService_GetUnknownSession(t *testing.T) {
	s := newTestBrowseService(t, catalogProvider(10, 10), nil, 0)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBrowseService_ScrollPrefetches(t *testing.T) {
	s := newTestBrowseService(t, catalogProvider(50, 10), nil, 0)
	session, err := s.Create()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(session.Snapshot().LoadedPages) == 1 && !session.Snapshot().Loading }, waitFor, tick)

	_, err = s.Scroll(session.ID, 5, 9)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]int{0, 1}, session.Snapshot().LoadedPages)
	}, waitFor, tick)
}

func TestBrowseService_Jump(t *testing.T) {
	s := newTestBrowseService(t, catalogProvider(50, 10), nil, 0)
	session, err := s.Create()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return session.Snapshot().TotalPages == 5 && !session.Snapshot().Loading }, waitFor, tick)

	task, err := s.Jump(session.ID, 3)
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))

	snap := session.Snapshot()
	assert.Equal(t, []int{3}, snap.LoadedPages)
	assert.Equal(t, 30, snap.BaseIndex)
	assert.Equal(t, 3, snap.CurrentPage)
}

func TestBrowseService_CloseUnregisters(t *testing.T) {
	registrar := &recordingRegistrar{}
	s := newTestBrowseService(t, catalogProvider(10, 10), registrar, 0)
	session, err := s.Create()
	require.NoError(t, err)

	require.NoError(t, s.Close(session.ID))
	assert.Equal(t, []string{session.ID}, registrar.unregistered)
	assert.ErrorIs(t, s.Close(session.ID), ErrSessionNotFound)

	task := session.Controller.JumpToPage(0)
	assert.Error(t, task.Wait(context.Background()))
}

func TestBrowseService_CloseIdle(t *testing.T) {
	s := newTestBrowseService(t, catalogProvider(10, 10), nil, time.Minute)
	stale, err := s.Create()
	require.NoError(t, err)
	fresh, err := s.Create()
	require.NoError(t, err)

	stale.lastSeen.Store(time.Now().Add(-2 * time.Minute).UnixNano())

	assert.Equal(t, 1, s.CloseIdle(time.Now()))
	assert.Equal(t, 1, s.Count())
	_, err = s.Get(fresh.ID)
	assert.NoError(t, err)
	_, err = s.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBrowseService_CloseIdleDisabled(t *testing.T) {
	s := newTestBrowseService(t, catalogProvider(10, 10), nil, 0)
	session, err := s.Create()
	require.NoError(t, err)
	session.lastSeen.Store(0)

	assert.Equal(t, 0, s.CloseIdle(time.Now()))
	assert.Equal(t, 1, s.Count())
}

func TestBrowseService_CloseAll(t *testing.T) {
	s := newTestBrowseService(t, catalogProvider(10, 10), nil, 0)
	for range 3 {
		_, err := s.Create()
		require.NoError(t, err)
	}

	s.CloseAll()
	assert.Equal(t, 0, s.Count())
}
