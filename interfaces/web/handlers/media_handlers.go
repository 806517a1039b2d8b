package handlers

import (
	"net/http"

	"medianav/domain/contracts"
	"medianav/domain/media"
	"medianav/infrastructure/sources"
	"medianav/logging"
)

// MaxAPIPageSize bounds the pageSize query parameter of the page API.
const MaxAPIPageSize = 500

// MediaHandlers serves the catalog as a 1-based page API, the format
// consumed by the HTTP source.
type MediaHandlers struct {
	repo            contracts.MediaRepository
	defaultPageSize int
	logger          *logging.Logger
}

// NewMediaHandlers creates the page API handlers.
func NewMediaHandlers(repo contracts.MediaRepository, defaultPageSize int) *MediaHandlers {
	return &MediaHandlers{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		logger:          logging.Default().WithComponent("media_handler"),
	}
}

// ListPage handles GET /api/media?page=&pageSize=
func (h *MediaHandlers) ListPage(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		RenderError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	pageSize, err := queryInt(r, "pageSize", h.defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > MaxAPIPageSize {
		RenderError(w, http.StatusBadRequest, "pageSize must be between 1 and 500")
		return
	}

	ctx := r.Context()
	total, err := h.repo.Count(ctx)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to count catalog", "error", err)
		RenderError(w, http.StatusInternalServerError, "failed to count catalog")
		return
	}

	items, err := h.repo.ListRange(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to list catalog page", "page", page, "page_size", pageSize, "error", err)
		RenderError(w, http.StatusInternalServerError, "failed to list catalog")
		return
	}
	if items == nil {
		items = []media.Item{}
	}

	RenderJSON(w, http.StatusOK, sources.PageResponse[media.Item]{Items: items, Total: total})
}
