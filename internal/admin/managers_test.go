package admin

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
)

func intPtr(n int) *int { return &n }

type listCall struct {
	skip, limit    int
	status, search string
}

type fakeProducts struct {
	page    clients.Page[clients.ProductSummary]
	lists   []listCall
	deleted []string
	images  []string
	updated map[string]any
}

func (f *fakeProducts) List(_ context.Context, skip, limit int, search string) (clients.Page[clients.ProductSummary], error) {
	f.lists = append(f.lists, listCall{skip: skip, limit: limit, search: search})
	return f.page, nil
}

func (f *fakeProducts) Get(_ context.Context, id string) (clients.Product, error) {
	return clients.Product{ProductID: id}, nil
}

func (f *fakeProducts) Create(_ context.Context, _ *clients.Multipart) (clients.Product, error) {
	return clients.Product{ProductID: "new"}, nil
}

func (f *fakeProducts) Update(_ context.Context, id string, in any) (clients.Product, error) {
	if f.updated == nil {
		f.updated = map[string]any{}
	}
	f.updated[id] = in
	return clients.Product{ProductID: id}, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProducts) UploadImages(_ context.Context, _ string, _ *clients.Multipart) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeProducts) DeleteImage(_ context.Context, id string) error {
	f.images = append(f.images, id)
	return nil
}

type fakeOrders struct {
	lists   []listCall
	updates [][2]string
}

func (f *fakeOrders) List(_ context.Context, skip, limit int, status, search string) (clients.Page[clients.OrderSummary], error) {
	f.lists = append(f.lists, listCall{skip: skip, limit: limit, status: status, search: search})
	return clients.Page[clients.OrderSummary]{Items: []clients.OrderSummary{{OrderID: "o-1"}}}, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (clients.Order, error) {
	return clients.Order{OrderID: id}, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id, status string) (clients.Order, error) {
	f.updates = append(f.updates, [2]string{id, status})
	return clients.Order{OrderID: id, Status: status}, nil
}

func TestPages(t *testing.T) {
	require.Equal(t, 3, Pages(25, 10, 0))
	require.Equal(t, 4, Pages(25, 10, 4))
	require.Equal(t, 2, Pages(20, 10, 0))
	require.Equal(t, 0, Pages(0, 10, 0))
	require.Equal(t, 0, Pages(5, 0, 0))
}

func TestProductListPaging(t *testing.T) {
	api := &fakeProducts{page: clients.Page[clients.ProductSummary]{
		Items:      []clients.ProductSummary{{ProductID: "p-1"}},
		TotalCount: intPtr(25),
	}}
	m := NewProductManager(api, ContextConfirmer, 10, nil)

	list, err := m.List(context.Background(), 3, "lamp")
	require.NoError(t, err)
	require.Equal(t, listCall{skip: 20, limit: 10, search: "lamp"}, api.lists[0])
	require.Equal(t, PageInfo{Page: 3, Pages: 3, Total: 25, PerPage: 10}, list.PageInfo)

	api.page = clients.Page[clients.ProductSummary]{Page: intPtr(2), Pages: intPtr(7), TotalCount: intPtr(61)}
	list, err = m.List(context.Background(), 0, "")
	require.NoError(t, err)
	require.Equal(t, 0, api.lists[1].skip)
	require.Equal(t, PageInfo{Page: 2, Pages: 7, Total: 61, PerPage: 10}, list.PageInfo)
	require.NotNil(t, list.Items)
}

func TestDestructiveActionsNeedConfirmation(t *testing.T) {
	products := &fakeProducts{}
	orders := &fakeOrders{}
	pm := NewProductManager(products, ContextConfirmer, 0, nil)
	om := NewOrderManager(orders, ContextConfirmer, 0, nil)
	ctx := context.Background()

	require.ErrorIs(t, pm.Delete(ctx, "p-1"), ErrNotConfirmed)
	require.ErrorIs(t, pm.DeleteImage(ctx, "img-1"), ErrNotConfirmed)
	_, err := om.ChangeStatus(ctx, "o-1", "shipped")
	require.ErrorIs(t, err, ErrNotConfirmed)
	require.Empty(t, products.deleted)
	require.Empty(t, products.images)
	require.Empty(t, orders.updates)

	ctx = WithConfirmation(ctx, true)
	require.NoError(t, pm.Delete(ctx, "p-1"))
	require.NoError(t, pm.DeleteImage(ctx, "img-1"))
	o, err := om.ChangeStatus(ctx, "o-1", "shipped")
	require.NoError(t, err)
	require.Equal(t, "SHIPPED", o.Status)
	require.Equal(t, []string{"p-1"}, products.deleted)
	require.Equal(t, []string{"img-1"}, products.images)
	require.Equal(t, [][2]string{{"o-1", "SHIPPED"}}, orders.updates)
}

func TestConfirmFuncSeesPrompt(t *testing.T) {
	var prompts []string
	c := ConfirmFunc(func(_ context.Context, p string) bool {
		prompts = append(prompts, p)
		return false
	})
	pm := NewProductManager(&fakeProducts{}, c, 0, nil)
	require.ErrorIs(t, pm.Delete(context.Background(), "p-9"), ErrNotConfirmed)
	require.Equal(t, []string{"delete product p-9"}, prompts)

	var nilConfirm Confirmer
	pm = NewProductManager(&fakeProducts{}, nilConfirm, 0, nil)
	require.ErrorIs(t, pm.Delete(context.Background(), "p-9"), ErrNotConfirmed)
}

func TestChangeStatusRejectsUnknown(t *testing.T) {
	orders := &fakeOrders{}
	om := NewOrderManager(orders, ContextConfirmer, 0, nil)
	ctx := WithConfirmation(context.Background(), true)

	_, err := om.ChangeStatus(ctx, "o-1", "LOST")
	require.ErrorIs(t, err, ErrUnknownStatus)
	require.Empty(t, orders.updates)

	_, err = om.List(ctx, 1, "bogus", "")
	require.Error(t, err)
	require.Empty(t, orders.lists)

	_, err = om.List(ctx, 2, "new", "smith")
	require.NoError(t, err)
	require.Equal(t, listCall{skip: 10, limit: 10, status: "NEW", search: "smith"}, orders.lists[0])
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	api := &fakeProducts{}
	pm := NewProductManager(api, ContextConfirmer, 0, nil)
	price := decimal.RequireFromString("12.50")
	active := false

	_, err := pm.Update(context.Background(), "p-1", ProductUpdate{Price: &price, IsActive: &active})
	require.NoError(t, err)

	raw, err := json.Marshal(api.updated["p-1"])
	require.NoError(t, err)
	require.JSONEq(t, `{"price":"12.5","is_active":false}`, string(raw))
}

func TestUploadImagesRequiresFiles(t *testing.T) {
	pm := NewProductManager(&fakeProducts{}, ContextConfirmer, 0, nil)
	require.ErrorIs(t, pm.UploadImages(context.Background(), "p-1", nil), ErrNoImages)
}

func TestParseProductForm(t *testing.T) {
	f, err := ParseProductForm(map[string][]string{
		"name":               {"Bulb"},
		"article":            {"B-1"},
		"price":              {"9.99"},
		"stock_quantity":     {"4"},
		"power":              {"7.5"},
		"lumens":             {"800"},
		"is_active":          {"on"},
		"product_technology": {"LED"},
	})
	require.NoError(t, err)
	require.True(t, f.IsActive)
	require.Equal(t, "9.99", f.Price.String())
	require.Equal(t, 4, f.StockQuantity)
	require.Equal(t, 800, *f.Lumens)
	require.Nil(t, f.ColorTemperature)

	f, err = ParseProductForm(map[string][]string{"name": {"Bulb"}})
	require.NoError(t, err)
	require.False(t, f.IsActive)

	_, err = ParseProductForm(map[string][]string{"price": {"cheap"}})
	require.Error(t, err)
	_, err = ParseProductForm(map[string][]string{"lumens": {"1.5"}})
	require.Error(t, err)
}

func TestCreateSendsMultipart(t *testing.T) {
	type seen struct {
		fields map[string]string
		files  []string
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		s := seen{fields: map[string]string{}}
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			if p.FileName() != "" {
				s.files = append(s.files, p.FileName())
				continue
			}
			b, _ := io.ReadAll(p)
			s.fields[p.FormName()] = string(b)
		}
		got <- s
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"product_id":"p-new","name":"Bulb","price":"9.99","power":"7.5"}`))
	}))
	t.Cleanup(srv.Close)

	c := clients.NewClient("admin", srv.URL+"/api/v1", srv.Client(), nil)
	pm := NewProductManager(clients.NewAdminProductClient(c), ContextConfirmer, 0, nil)

	p, err := pm.Create(context.Background(), ProductForm{
		Name:  "Bulb",
		Price: decimal.RequireFromString("9.99"),
		Power: decimal.RequireFromString("7.5"),
	}, []Upload{{Filename: "a.png", ContentType: "image/png", Data: []byte{1, 2}}})
	require.NoError(t, err)
	require.Equal(t, "p-new", p.ProductID)

	s := <-got
	require.Equal(t, "false", s.fields["is_active"])
	require.Equal(t, "Bulb", s.fields["name"])
	require.Equal(t, "9.99", s.fields["price"])
	require.NotContains(t, s.fields, "lumens")
	require.NotContains(t, s.fields, "description")
	require.Equal(t, []string{"a.png"}, s.files)
}
