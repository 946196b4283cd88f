package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

type AdminProductClient struct{ c *Client }

func NewAdminProductClient(c *Client) *AdminProductClient { return &AdminProductClient{c: c} }

func (ac *AdminProductClient) List(ctx context.Context, skip, limit int, search string) (Page[ProductSummary], error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}
	var page Page[ProductSummary]
	err := ac.c.Call(ctx, http.MethodGet, "/admin/products", q, nil, &page)
	return page, err
}

func (ac *AdminProductClient) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := ac.c.Call(ctx, http.MethodGet, "/admin/products/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

func (ac *AdminProductClient) Create(ctx context.Context, form *Multipart) (Product, error) {
	var p Product
	err := ac.c.Call(ctx, http.MethodPost, "/admin/products/", nil, form, &p)
	return p, err
}

// Update sends a JSON body; only the non-nil fields of in are changed upstream.
func (ac *AdminProductClient) Update(ctx context.Context, id string, in any) (Product, error) {
	var p Product
	err := ac.c.Call(ctx, http.MethodPut, "/admin/products/"+url.PathEscape(id), nil, in, &p)
	return p, err
}

func (ac *AdminProductClient) Delete(ctx context.Context, id string) error {
	_, err := ac.c.Request(ctx, http.MethodDelete, "/admin/products/"+url.PathEscape(id), nil, nil)
	return err
}

func (ac *AdminProductClient) UploadImages(ctx context.Context, id string, form *Multipart) (json.RawMessage, error) {
	return ac.c.Request(ctx, http.MethodPost, "/admin/products/"+url.PathEscape(id)+"/images/", nil, form)
}

func (ac *AdminProductClient) DeleteImage(ctx context.Context, imageID string) error {
	_, err := ac.c.Request(ctx, http.MethodDelete, "/admin/products/images/"+url.PathEscape(imageID), nil, nil)
	return err
}

type AdminOrderClient struct{ c *Client }

func NewAdminOrderClient(c *Client) *AdminOrderClient { return &AdminOrderClient{c: c} }

func (ac *AdminOrderClient) List(ctx context.Context, skip, limit int, status, search string) (Page[OrderSummary], error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	if status != "" {
		q.Set("status", status)
	}
	if search != "" {
		q.Set("search", search)
	}
	var page Page[OrderSummary]
	err := ac.c.Call(ctx, http.MethodGet, "/admin/orders", q, nil, &page)
	return page, err
}

func (ac *AdminOrderClient) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := ac.c.Call(ctx, http.MethodGet, "/admin/orders/"+url.PathEscape(id), nil, nil, &o)
	return o, err
}

func (ac *AdminOrderClient) UpdateStatus(ctx context.Context, id, status string) (Order, error) {
	var o Order
	body := map[string]string{"status": status}
	err := ac.c.Call(ctx, http.MethodPatch, "/admin/orders/"+url.PathEscape(id)+"/status", nil, body, &o)
	return o, err
}
