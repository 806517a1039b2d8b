package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medianav/application"
	"medianav/domain/contracts"
	"medianav/domain/media"
	"medianav/domain/paging"
	"medianav/infrastructure/sources"
	"medianav/interfaces/web/presenters"
)

type catalogProvider struct {
	catalog  []media.Item
	pageSize int
}

func (p catalogProvider) CreateSource() (contracts.Source[media.Item], error) {
	return sources.NewListSource(p.catalog, p.pageSize), nil
}

func newBrowseRouter(t *testing.T, catalogSize int) (http.Handler, *application.BrowseService, *BrowseHandlers) {
	t.Helper()
	settings := paging.Settings{PageSize: 10, MaxCacheSize: 100, KeepWindow: 20}
	service := application.NewBrowseService(catalogProvider{catalog: media.Generate(catalogSize), pageSize: 10}, settings, nil, 0)
	t.Cleanup(service.CloseAll)

	h := NewBrowseHandlers(service, presenters.NewWindowPresenter(settings.PageSize))
	r := chi.NewRouter()
	r.Get("/", h.Home)
	r.Post("/browse", h.Create)
	r.Get("/browse/{sessionID}", h.Get)
	r.Post("/browse/{sessionID}/scroll", h.Scroll)
	r.Post("/browse/{sessionID}/jump/{page}", h.Jump)
	r.Delete("/browse/{sessionID}", h.Delete)
	return r, service, h
}

func do(t *testing.T, h http.Handler, method, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeWindow(t *testing.T, w *httptest.ResponseRecorder) presenters.WindowVM {
	t.Helper()
	var vm presenters.WindowVM
	require.NoError(t, json.NewDecoder(w.Body).Decode(&vm))
	return vm
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/browse")
	require.Equal(t, http.StatusCreated, w.Code)
	vm := decodeWindow(t, w)
	require.NotEmpty(t, vm.SessionID)

	require.Eventually(t, func() bool {
		vm := decodeWindow(t, do(t, router, http.MethodGet, "/browse/"+vm.SessionID))
		return !vm.Loading && len(vm.LoadedPages) == 1
	}, 2*time.Second, 5*time.Millisecond)
	return vm.SessionID
}

func TestBrowseHandlers_CreateAndGet(t *testing.T) {
	router, service, _ := newBrowseRouter(t, 45)

	id := createSession(t, router)
	assert.Equal(t, 1, service.Count())

	w := do(t, router, http.MethodGet, "/browse/"+id)
	require.Equal(t, http.StatusOK, w.Code)
	vm := decodeWindow(t, w)
	assert.Equal(t, 5, vm.TotalPages)
	assert.Equal(t, []int{0}, vm.LoadedPages)
	require.Len(t, vm.Items, 10)
	assert.Equal(t, "Title 0001", vm.Items[0].Title)
}

func TestBrowseHandlers_GetRendersGridForHTMX(t *testing.T) {
	router, _, _ := newBrowseRouter(t, 45)
	id := createSession(t, router)

	w := do(t, router, http.MethodGet, "/browse/"+id, "HX-Request", "true")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `id="window"`)
	assert.Contains(t, w.Body.String(), "Title 0001")
}

func TestBrowseHandlers_UnknownSession(t *testing.T) {
	router, _, _ := newBrowseRouter(t, 10)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/browse/nope").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/browse/nope/scroll?first=0&last=1").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/browse/nope/jump/1").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/browse/nope").Code)
}

func TestBrowseHandlers_ScrollPrefetches(t *testing.T) {
	router, _, _ := newBrowseRouter(t, 45)
	id := createSession(t, router)

	w := do(t, router, http.MethodPost, "/browse/"+id+"/scroll?first=5&last=9")
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		vm := decodeWindow(t, do(t, router, http.MethodGet, "/browse/"+id))
		return assert.ObjectsAreEqual([]int{0, 1}, vm.LoadedPages) && len(vm.Items) == 20
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBrowseHandlers_ScrollInvalidRange(t *testing.T) {
	router, _, _ := newBrowseRouter(t, 45)
	id := createSession(t, router)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/browse/"+id+"/scroll").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/browse/"+id+"/scroll?first=5&last=2").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/browse/"+id+"/scroll?first=x").Code)
}

func TestBrowseHandlers_JumpAndWait(t *testing.T) {
	router, _, _ := newBrowseRouter(t, 45)
	id := createSession(t, router)

	w := do(t, router, http.MethodPost, "/browse/"+id+"/jump/4?wait=true")

	require.Equal(t, http.StatusOK, w.Code)
	vm := decodeWindow(t, w)
	assert.Equal(t, []int{3}, vm.LoadedPages)
	assert.Equal(t, 30, vm.BaseIndex)
	assert.Equal(t, 3, vm.CurrentPage)
	require.Len(t, vm.Items, 10)
	assert.Equal(t, 30, vm.Items[0].Index)
}

func TestBrowseHandlers_JumpOutOfRange(t *testing.T) {
	router, _, _ := newBrowseRouter(t, 45)
	id := createSession(t, router)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/browse/"+id+"/jump/6").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/browse/"+id+"/jump/0").Code)

	// The window is untouched by a rejected jump
	vm := decodeWindow(t, do(t, router, http.MethodGet, "/browse/"+id))
	assert.Equal(t, []int{0}, vm.LoadedPages)
}

func TestBrowseHandlers_Delete(t *testing.T) {
	router, service, _ := newBrowseRouter(t, 10)
	id := createSession(t, router)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/browse/"+id).Code)
	assert.Equal(t, 0, service.Count())
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/browse/"+id).Code)
}

func TestBrowseHandlers_Home(t *testing.T) {
	router, service, _ := newBrowseRouter(t, 10)

	w := do(t, router, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<!doctype html>")
	assert.Contains(t, w.Body.String(), "sse-connect=")
	assert.Equal(t, 1, service.Count())
}

func TestBrowseHandlers_WindowViewModel(t *testing.T) {
	router, _, h := newBrowseRouter(t, 10)
	id := createSession(t, router)

	vm, err := h.WindowViewModel(id)
	require.NoError(t, err)
	assert.Equal(t, id, vm.SessionID)

	_, err = h.WindowViewModel("missing")
	assert.ErrorIs(t, err, application.ErrSessionNotFound)
}
