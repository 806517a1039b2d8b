package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medianav/application"
	"medianav/domain/paging"
	"medianav/interfaces/web/presenters"
	"medianav/logging"
)

// JumpWaitTimeout bounds how long a jump request with wait=true blocks.
const JumpWaitTimeout = 10 * time.Second

// BrowseSessions is the part of the session service the handlers use.
type BrowseSessions interface {
	Create() (*application.BrowseSession, error)
	Get(id string) (*application.BrowseSession, error)
	Scroll(id string, firstVisible, lastVisible int) (*application.BrowseSession, error)
	Jump(id string, page int) (*application.JumpTask, error)
	Close(id string) error
}

// BrowseHandlers exposes browse sessions over HTTP. Responses are JSON unless
// the client asks for HTML, in which case the grid fragment is rendered.
type BrowseHandlers struct {
	sessions  BrowseSessions
	presenter *presenters.WindowPresenter
	logger    *logging.Logger
}

// NewBrowseHandlers creates the browse handlers.
func NewBrowseHandlers(sessions BrowseSessions, presenter *presenters.WindowPresenter) *BrowseHandlers {
	return &BrowseHandlers{
		sessions:  sessions,
		presenter: presenter,
		logger:    logging.Default().WithComponent("browse_handler"),
	}
}

// WindowViewModel returns the current view model of a session.
func (h *BrowseHandlers) WindowViewModel(sessionID string) (*presenters.WindowVM, error) {
	session, err := h.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return h.presenter.ToWindowViewModel(session.ID, session.Snapshot()), nil
}

// Home opens a new session and renders the full browse page.
func (h *BrowseHandlers) Home(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create()
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to create browse session", "error", err)
		http.Error(w, "failed to open catalog", http.StatusInternalServerError)
		return
	}
	vm := h.presenter.ToWindowViewModel(session.ID, session.Snapshot())
	RenderResponse(r.Context(), w, r, h.presenter.Page(vm))
}

// Create handles POST /browse
func (h *BrowseHandlers) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create()
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to create browse session", "error", err)
		RenderError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.logger.Info("Browse session opened", "session_id", session.ID)
	h.respond(w, r, http.StatusCreated, session)
}

// Get handles GET /browse/{sessionID}
func (h *BrowseHandlers) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, session)
}

// Scroll handles POST /browse/{sessionID}/scroll?first=&last=
func (h *BrowseHandlers) Scroll(w http.ResponseWriter, r *http.Request) {
	first, err := queryInt(r, "first", -1)
	if err != nil || first < 0 {
		RenderError(w, http.StatusBadRequest, "first must be a non-negative integer")
		return
	}
	last, err := queryInt(r, "last", first)
	if err != nil || last < first {
		RenderError(w, http.StatusBadRequest, "last must be an integer not below first")
		return
	}

	session, err := h.sessions.Scroll(chi.URLParam(r, "sessionID"), first, last)
	if err != nil {
		h.renderSessionError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, session)
}

// Jump handles POST /browse/{sessionID}/jump/{page}. The page is 1-based. With
// wait=true the response is sent after the jump settles.
func (h *BrowseHandlers) Jump(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "page")
	if err != nil || number < 1 {
		RenderError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	task, err := h.sessions.Jump(sessionID, number-1)
	if err != nil {
		h.renderSessionError(w, r, err)
		return
	}

	// Rejected jumps complete immediately
	select {
	case <-task.Done():
		if err := task.Wait(r.Context()); errors.Is(err, paging.ErrInvalidPage) {
			RenderError(w, http.StatusBadRequest, "page out of range")
			return
		}
	default:
	}

	status := http.StatusAccepted
	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), JumpWaitTimeout)
		defer cancel()
		if err := task.Wait(ctx); err != nil {
			h.logger.WithContext(r.Context()).Warn("Jump did not land", "session_id", sessionID, "page", number-1, "error", err)
			status = http.StatusConflict
		} else {
			status = http.StatusOK
		}
	}

	session, err := h.sessions.Get(sessionID)
	if err != nil {
		h.renderSessionError(w, r, err)
		return
	}
	h.respond(w, r, status, session)
}

// Delete handles DELETE /browse/{sessionID}
func (h *BrowseHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		h.renderSessionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BrowseHandlers) session(w http.ResponseWriter, r *http.Request) (*application.BrowseSession, bool) {
	session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.renderSessionError(w, r, err)
		return nil, false
	}
	return session, true
}

func (h *BrowseHandlers) respond(w http.ResponseWriter, r *http.Request, status int, session *application.BrowseSession) {
	vm := h.presenter.ToWindowViewModel(session.ID, session.Snapshot())
	if WantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := h.presenter.Grid(vm).Render(r.Context(), w); err != nil {
			h.logger.Error("Failed to render window grid", "session_id", session.ID, "error", err)
		}
		return
	}
	RenderJSON(w, status, vm)
}

func (h *BrowseHandlers) renderSessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, application.ErrSessionNotFound) {
		RenderError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.WithContext(r.Context()).Error("Browse request failed", "error", err)
	RenderError(w, http.StatusInternalServerError, "internal server error")
}
