package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type ProductClient struct{ c *Client }

func NewProductClient(c *Client) *ProductClient { return &ProductClient{c: c} }

// ListProducts fetches one catalog page. Filters are passed through as query params.
func (pc *ProductClient) ListProducts(ctx context.Context, skip, limit int, filters map[string]string) (Page[ProductSummary], error) {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var page Page[ProductSummary]
	err := pc.c.Call(ctx, http.MethodGet, "/products", q, nil, &page)
	return page, err
}

func (pc *ProductClient) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := pc.c.Call(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

// ImageURL resolves an image path relative to the product service host.
// Static files are served beside the API root, not under it.
func (pc *ProductClient) ImageURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimSuffix(pc.c.BaseURL.String(), "/api/v1")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
