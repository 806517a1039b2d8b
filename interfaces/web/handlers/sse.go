package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"medianav/application"
	"medianav/interfaces/web/presenters"
	"medianav/logging"
)

// WindowSource resolves the current window of a session.
type WindowSource interface {
	WindowViewModel(sessionID string) (*presenters.WindowVM, error)
}

// SSEClient represents a connected Server-Sent Events client.
type SSEClient struct {
	id        string
	sessionID string
	writer    http.ResponseWriter
	flusher   http.Flusher

	mu       sync.Mutex
	done     chan struct{}
	closed   bool
	lastSent time.Time
}

// SSEManager manages Server-Sent Events connections and per-session
// broadcasting of window changes and fetch failures.
type SSEManager struct {
	clients        map[string]*SSEClient
	windows        WindowSource
	mu             sync.RWMutex
	logger         *logging.Logger
	toastPresenter *presenters.ToastPresenter
}

// NewSSEManager creates a new SSE connection manager. Keep-alives and stale
// connection cleanup run until ctx is done.
func NewSSEManager(ctx context.Context) *SSEManager {
	manager := &SSEManager{
		clients:        make(map[string]*SSEClient),
		logger:         logging.Default().WithComponent("sse_manager"),
		toastPresenter: presenters.NewToastPresenter(),
	}

	go manager.cleanupRoutine(ctx)

	return manager
}

// SetWindowSource sets where window snapshots are read from. It is set after
// construction because the session service is built on top of this manager.
func (s *SSEManager) SetWindowSource(windows WindowSource) {
	s.mu.Lock()
	s.windows = windows
	s.mu.Unlock()
}

func (s *SSEManager) windowSource() WindowSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windows
}

// AddClient adds a new SSE client connection for a session
func (s *SSEManager) AddClient(clientID, sessionID string, w http.ResponseWriter) *SSEClient {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("Response writer does not support flushing")
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	flusher.Flush()

	client := &SSEClient{
		id:        clientID,
		sessionID: sessionID,
		writer:    w,
		flusher:   flusher,
		done:      make(chan struct{}),
		lastSent:  time.Now(),
	}

	s.mu.Lock()
	s.clients[clientID] = client
	total := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("SSE client connected", "client_id", clientID, "session_id", sessionID, "total_clients", total)
	return client
}

// RemoveClient removes an SSE client connection
func (s *SSEManager) RemoveClient(clientID string) {
	s.mu.Lock()
	client, exists := s.clients[clientID]
	if exists {
		delete(s.clients, clientID)
	}
	s.mu.Unlock()

	if exists {
		client.close()
		s.logger.Info("SSE client disconnected", "client_id", clientID)
	}
}

// CloseAll disconnects every client
func (s *SSEManager) CloseAll() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[string]*SSEClient)
	s.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
	s.logger.Info("Closed all SSE clients", "count", len(clients))
}

// ClientCount returns the number of clients following sessionID
func (s *SSEManager) ClientCount(sessionID string) int {
	return len(s.sessionClients(sessionID))
}

func (s *SSEManager) sessionClients(sessionID string) []*SSEClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*SSEClient
	for _, client := range s.clients {
		if client.sessionID == sessionID {
			out = append(out, client)
		}
	}
	return out
}

// BroadcastWindowUpdate sends the current window of a session to its clients
func (s *SSEManager) BroadcastWindowUpdate(sessionID string) {
	clients := s.sessionClients(sessionID)
	if len(clients) == 0 {
		return
	}

	data, err := s.windowJSON(sessionID)
	if err != nil {
		if !errors.Is(err, application.ErrSessionNotFound) {
			s.logger.Error("Failed to build window update", "session_id", sessionID, "error", err)
		}
		return
	}

	s.broadcast(clients, "window", data)
	s.logger.Debug("Broadcasted window update", "session_id", sessionID, "clients", len(clients))
}

// BroadcastFetchError sends a fetch failure toast to a session's clients
func (s *SSEManager) BroadcastFetchError(sessionID string, page int, message string) {
	clients := s.sessionClients(sessionID)
	if len(clients) == 0 {
		s.logger.Debug("No SSE clients for session, skipping fetch error", "session_id", sessionID)
		return
	}

	toastHTML, err := s.toastPresenter.FormatFetchErrorToast(page, message)
	if err != nil {
		s.logger.Error("Failed to format fetch error toast", "error", err, "page", page)
		return
	}

	s.broadcast(clients, "fetch-error", toastHTML)
	s.logger.Info("Broadcasted fetch error", "session_id", sessionID, "page", page, "clients", len(clients))
}

func (s *SSEManager) windowJSON(sessionID string) (string, error) {
	windows := s.windowSource()
	if windows == nil {
		return "", fmt.Errorf("no window source configured")
	}
	vm, err := windows.WindowViewModel(sessionID)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(vm)
	if err != nil {
		return "", fmt.Errorf("encode window: %w", err)
	}
	return string(data), nil
}

func (s *SSEManager) broadcast(clients []*SSEClient, event, data string) {
	failedClients := []string{}
	for _, client := range clients {
		if err := client.send(event, data); err != nil {
			s.logger.Warn("Failed to send event to client", "client_id", client.id, "event", event, "error", err)
			failedClients = append(failedClients, client.id)
		}
	}

	// Remove failed clients after broadcasting
	for _, clientID := range failedClients {
		s.RemoveClient(clientID)
	}
}

// send writes one SSE message. Writes never happen after close, so the
// response writer is not touched once the handler has returned.
func (c *SSEClient) send(event, data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client connection closed")
	}

	var message string
	if event == "keepalive" {
		// Comments keep the connection open without triggering HTMX
		message = fmt.Sprintf(": %s\n\n", data)
	} else {
		message = fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
	}

	if _, err := c.writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	c.flusher.Flush()
	c.lastSent = time.Now()
	return nil
}

func (c *SSEClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *SSEClient) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSent
}

// SendKeepAlive sends keep-alive messages to all clients
func (s *SSEManager) SendKeepAlive() {
	s.mu.RLock()
	clientList := make([]*SSEClient, 0, len(s.clients))
	for _, client := range s.clients {
		clientList = append(clientList, client)
	}
	s.mu.RUnlock()

	failedClients := []string{}
	for _, client := range clientList {
		if err := client.send("keepalive", time.Now().Format(time.RFC3339)); err != nil {
			s.logger.Debug("Keep-alive failed, removing client", "client_id", client.id)
			failedClients = append(failedClients, client.id)
		}
	}

	for _, clientID := range failedClients {
		s.RemoveClient(clientID)
	}
}

// cleanupRoutine periodically cleans up stale connections
func (s *SSEManager) cleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.SendKeepAlive()

		staleThreshold := time.Now().Add(-2 * time.Minute)
		staleClients := []string{}
		s.mu.RLock()
		for clientID, client := range s.clients {
			if client.idleSince().Before(staleThreshold) {
				staleClients = append(staleClients, clientID)
			}
		}
		s.mu.RUnlock()

		for _, clientID := range staleClients {
			s.logger.Info("Removing stale SSE client", "client_id", clientID)
			s.RemoveClient(clientID)
		}
	}
}

// HandleSSEConnection handles GET /events?session={id}
func (s *SSEManager) HandleSSEConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	initial, err := s.windowJSON(sessionID)
	if err != nil {
		if errors.Is(err, application.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		s.logger.Error("Failed to read session window", "session_id", sessionID, "error", err)
		http.Error(w, "failed to read session", http.StatusInternalServerError)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = fmt.Sprintf("client_%d", time.Now().UnixNano())
	}

	client := s.AddClient(clientID, sessionID, w)
	if client == nil {
		http.Error(w, "Failed to establish SSE connection", http.StatusInternalServerError)
		return
	}

	if err := client.send("window", initial); err != nil {
		s.logger.Error("Failed to send initial window", "client_id", clientID, "error", err)
		s.RemoveClient(clientID)
		return
	}

	select {
	case <-r.Context().Done():
		s.logger.Info("SSE client context cancelled", "client_id", clientID)
	case <-client.done:
		s.logger.Info("SSE client connection closed", "client_id", clientID)
	}
	s.RemoveClient(clientID)
}
