package clients

import (
	"context"
	"net/http"
	"net/url"
)

type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

func (oc *OrderClient) CreateOrder(ctx context.Context, in OrderCreate) (Order, error) {
	var o Order
	err := oc.c.Call(ctx, http.MethodPost, "/orders", nil, in, &o)
	return o, err
}

func (oc *OrderClient) PromocodeByName(ctx context.Context, name string) (Promocode, error) {
	var p Promocode
	err := oc.c.Call(ctx, http.MethodGet, "/promocodes/name/"+url.PathEscape(name), nil, nil, &p)
	return p, err
}
