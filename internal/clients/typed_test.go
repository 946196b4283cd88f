package clients

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestListProductsAcceptsBareArray(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `[{"product_id":"p1","name":"Lamp","article":"L-1","price":"12.50","main_image_url":null}]`)
	pc := NewProductClient(newTestClient(srv.URL))

	page, err := pc.ListProducts(context.Background(), 9, 9, map[string]string{"socket": "E27"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Nil(t, page.TotalCount)
	require.True(t, decimal.RequireFromString("12.5").Equal(page.Items[0].Price))

	got := <-reqs
	require.Equal(t, "/api/v1/products", got.Path)
	q, _ := url.ParseQuery(got.RawQuery)
	require.Equal(t, "9", q.Get("skip"))
	require.Equal(t, "9", q.Get("limit"))
	require.Equal(t, "E27", q.Get("socket"))
}

func TestListProductsAcceptsEnvelope(t *testing.T) {
	srv, _ := newStubServer(t, http.StatusOK, `{"items":[{"product_id":"p1","name":"Lamp","article":"L-1","price":3}],"total_count":20,"page":1}`)
	pc := NewProductClient(newTestClient(srv.URL))

	page, err := pc.ListProducts(context.Background(), 0, 9, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.TotalCount)
	require.Equal(t, 20, *page.TotalCount)
	require.Equal(t, 1, *page.Page)
}

func TestImageURL(t *testing.T) {
	pc := NewProductClient(NewClient("product", "http://products:8001/api/v1", http.DefaultClient, nil))

	require.Equal(t, "http://products:8001/static/a.png", pc.ImageURL("/static/a.png"))
	require.Equal(t, "http://products:8001/static/a.png", pc.ImageURL("static/a.png"))
	require.Equal(t, "https://cdn.test/a.png", pc.ImageURL("https://cdn.test/a.png"))
	require.Equal(t, "", pc.ImageURL(""))
}

func TestPromocodeByNameEscapesPath(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"promocode_name":"A B","percent":10,"is_active":true}`)
	oc := NewOrderClient(newTestClient(srv.URL))

	p, err := oc.PromocodeByName(context.Background(), "A B")
	require.NoError(t, err)
	require.Equal(t, 10, *p.Percent)
	require.Equal(t, "/api/v1/promocodes/name/A B", (<-reqs).Path)
}

func TestAdminOrderClient(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"order_id":"o1","number":"N-1","status":"SHIPPED"}`)
	ac := NewAdminOrderClient(newTestClient(srv.URL))

	o, err := ac.UpdateStatus(context.Background(), "o1", "SHIPPED")
	require.NoError(t, err)
	require.Equal(t, "SHIPPED", o.Status)

	got := <-reqs
	require.Equal(t, http.MethodPatch, got.Method)
	require.Equal(t, "/api/v1/admin/orders/o1/status", got.Path)
	require.JSONEq(t, `{"status":"SHIPPED"}`, got.Body)
}

func TestAdminOrderListQuery(t *testing.T) {
	srv, reqs := newStubServer(t, http.StatusOK, `{"items":[],"total_count":0}`)
	ac := NewAdminOrderClient(newTestClient(srv.URL))

	_, err := ac.List(context.Background(), 20, 10, "NEW", "")
	require.NoError(t, err)

	q, _ := url.ParseQuery((<-reqs).RawQuery)
	require.Equal(t, "20", q.Get("skip"))
	require.Equal(t, "NEW", q.Get("status"))
	require.False(t, q.Has("search"))
}
