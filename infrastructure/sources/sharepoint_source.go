package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"medianav/domain/media"
	"medianav/infrastructure/spclient"
	"medianav/logging"
)

// SharePoint list columns holding catalog data.
const sharePointItemFields = "Id,Title,MediaKind,ReleaseYear,PosterUrl"

type sharePointItem struct {
	ID          int64   `json:"Id"`
	Title       string  `json:"Title"`
	MediaKind   string  `json:"MediaKind"`
	ReleaseYear float64 `json:"ReleaseYear"`
	PosterURL   string  `json:"PosterUrl"`
}

func (i sharePointItem) toMedia(position int) media.Item {
	kind := media.Kind(i.MediaKind)
	if kind == "" {
		kind = media.KindMovie
	}
	return media.Item{
		ID:        i.ID,
		Position:  position,
		Title:     i.Title,
		Kind:      kind,
		Year:      int(i.ReleaseYear),
		PosterURL: i.PosterURL,
	}
}

// SharePointFetcher reads a SharePoint list in pages of pageSize items,
// ordered by Id.
type SharePointFetcher struct {
	client spclient.ListClient
	listID string
	logger *logging.Logger
}

// NewSharePointFetcher creates a fetcher for listID.
func NewSharePointFetcher(client spclient.ListClient, listID string) *SharePointFetcher {
	return &SharePointFetcher{
		client: client,
		listID: listID,
		logger: logging.Default().WithComponent("sharepoint_source"),
	}
}

// Fetch implements FetchFunc.
func (f *SharePointFetcher) Fetch(ctx context.Context, page, pageSize int) (PageResponse[media.Item], error) {
	total, err := f.client.ListItemCount(ctx, f.listID)
	if err != nil {
		return PageResponse[media.Item]{}, err
	}
	out := PageResponse[media.Item]{Items: []media.Item{}, Total: total}

	raw, err := f.client.ListItemsPage(ctx, f.listID, sharePointItemFields, page, pageSize)
	if err != nil {
		return out, err
	}

	startPosition := (page - 1) * pageSize
	for i, data := range raw {
		var item sharePointItem
		if err := json.Unmarshal(data, &item); err != nil {
			return out, fmt.Errorf("decode list item: %w", err)
		}
		out.Items = append(out.Items, item.toMedia(startPosition+i))
	}

	f.logger.Source("SharePoint page loaded", "list_id", f.listID, "page", page, "items", len(out.Items), "total", out.Total)
	return out, nil
}

// NewSharePointSource wires a SharePointFetcher into a RemoteSource.
func NewSharePointSource(client spclient.ListClient, listID string, pageSize int) *RemoteSource[PageResponse[media.Item], media.Item] {
	fetcher := NewSharePointFetcher(client, listID)
	return NewRemoteSource(pageSize, fetcher.Fetch, IndexResponse[media.Item](pageSize))
}
