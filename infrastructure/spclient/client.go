// Package spclient wraps the Gosip API client for reading SharePoint lists
// page by page.
package spclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/koltyakov/gosip/api"

	"medianav/logging"
)

// SharePoint REST API limits for a single items request.
const (
	MinBatchSize = 1
	MaxBatchSize = 5000
)

// ListClient abstracts the SharePoint list operations a paged source needs.
type ListClient interface {
	// ListItemCount returns the number of items in a list.
	ListItemCount(ctx context.Context, listID string) (int, error)

	// ListItemsPage returns the normalized JSON of the items on a 1-based
	// page, ordered by Id. Pages past the end are empty.
	ListItemsPage(ctx context.Context, listID, fields string, page, pageSize int) ([][]byte, error)
}

// Client implements ListClient over Gosip.
type Client struct {
	gosipAPI      *api.SP
	defaultConfig *api.RequestConfig
	logger        *logging.Logger
}

// NewClient creates a list client.
func NewClient(gosipAPI *api.SP) *Client {
	return &Client{
		gosipAPI:      gosipAPI,
		defaultConfig: &api.RequestConfig{},
		logger:        logging.Default().WithComponent("sharepoint_client"),
	}
}

// createRequestConfig copies the default config with ctx for cancellation.
func (c *Client) createRequestConfig(ctx context.Context) *api.RequestConfig {
	config := *c.defaultConfig
	config.Context = ctx
	return &config
}

// ListItemCount implements ListClient.
func (c *Client) ListItemCount(ctx context.Context, listID string) (int, error) {
	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	res, err := sp.Web().Lists().GetByID(listID).Select("ItemCount").Get()
	if err != nil {
		return 0, fmt.Errorf("get list %s: %w", listID, err)
	}

	var meta struct {
		ItemCount int `json:"ItemCount"`
	}
	if err := json.Unmarshal(res.Normalized(), &meta); err != nil {
		return 0, fmt.Errorf("decode list metadata: %w", err)
	}
	return meta.ItemCount, nil
}

// ListItemsPage implements ListClient. SharePoint only hands out forward
// paging tokens, so page N is reached by following N-1 next links.
func (c *Client) ListItemsPage(ctx context.Context, listID, fields string, page, pageSize int) ([][]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("page %d is not positive", page)
	}

	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	p, err := sp.Web().Lists().GetByID(listID).Items().
		Select(fields).
		OrderBy("Id", true).
		Top(ClampBatchSize(pageSize)).
		GetPaged()
	if err != nil {
		return nil, fmt.Errorf("get list items: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	for n := 1; n < page; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !p.HasNextPage() {
			return nil, nil
		}
		if p, err = p.GetNextPage(); err != nil {
			return nil, fmt.Errorf("advance to page %d: %w", n+1, err)
		}
	}

	data := p.Items.Data()
	out := make([][]byte, 0, len(data))
	for _, ir := range data {
		out = append(out, ir.Normalized())
	}

	c.logger.Debug("List page read", "list_id", listID, "page", page, "items", len(out))
	return out, nil
}

// ClampBatchSize keeps a page size inside the REST API limits.
func ClampBatchSize(size int) int {
	return max(min(size, MaxBatchSize), MinBatchSize)
}
