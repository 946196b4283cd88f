package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
)

var ErrNoImages = errors.New("select at least one image to upload")

// ProductAPI is the admin product endpoint set. *clients.AdminProductClient implements it.
type ProductAPI interface {
	List(ctx context.Context, skip, limit int, search string) (clients.Page[clients.ProductSummary], error)
	Get(ctx context.Context, id string) (clients.Product, error)
	Create(ctx context.Context, form *clients.Multipart) (clients.Product, error)
	Update(ctx context.Context, id string, in any) (clients.Product, error)
	Delete(ctx context.Context, id string) error
	UploadImages(ctx context.Context, id string, form *clients.Multipart) (json.RawMessage, error)
	DeleteImage(ctx context.Context, imageID string) error
}

// ProductForm is the create form. Optional fields are omitted from the
// upload when empty so the service applies its own defaults.
type ProductForm struct {
	Name                  string          `json:"name"`
	Article               string          `json:"article"`
	Description           string          `json:"description"`
	Price                 decimal.Decimal `json:"price"`
	StockQuantity         int             `json:"stock_quantity"`
	IsActive              bool            `json:"is_active"`
	Manufacturer          string          `json:"manufacturer"`
	ProductTechnology     string          `json:"product_technology"`
	Socket                string          `json:"socket"`
	Power                 decimal.Decimal `json:"power"`
	Lumens                *int            `json:"lumens"`
	ColorTemperature      *int            `json:"color_temperature"`
	Voltage               string          `json:"voltage"`
	ClassEnergyEfficiency string          `json:"class_energy_efficiency"`
}

func (f ProductForm) Values() url.Values {
	v := url.Values{}
	v.Set("name", f.Name)
	v.Set("article", f.Article)
	v.Set("price", f.Price.String())
	v.Set("stock_quantity", strconv.Itoa(f.StockQuantity))
	v.Set("is_active", strconv.FormatBool(f.IsActive))
	v.Set("manufacturer", f.Manufacturer)
	v.Set("product_technology", f.ProductTechnology)
	v.Set("socket", f.Socket)
	v.Set("power", f.Power.String())

	setIf := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	setIf("description", f.Description)
	setIf("voltage", f.Voltage)
	setIf("class_energy_efficiency", f.ClassEnergyEfficiency)
	if f.Lumens != nil {
		v.Set("lumens", strconv.Itoa(*f.Lumens))
	}
	if f.ColorTemperature != nil {
		v.Set("color_temperature", strconv.Itoa(*f.ColorTemperature))
	}
	return v
}

// ProductUpdate is a partial update: nil fields are left unchanged upstream.
type ProductUpdate struct {
	Name                  *string          `json:"name,omitempty"`
	Article               *string          `json:"article,omitempty"`
	Description           *string          `json:"description,omitempty"`
	Price                 *decimal.Decimal `json:"price,omitempty"`
	StockQuantity         *int             `json:"stock_quantity,omitempty"`
	IsActive              *bool            `json:"is_active,omitempty"`
	Manufacturer          *string          `json:"manufacturer,omitempty"`
	ProductTechnology     *string          `json:"product_technology,omitempty"`
	Socket                *string          `json:"socket,omitempty"`
	Power                 *decimal.Decimal `json:"power,omitempty"`
	Lumens                *int             `json:"lumens,omitempty"`
	ColorTemperature      *int             `json:"color_temperature,omitempty"`
	Voltage               *string          `json:"voltage,omitempty"`
	ClassEnergyEfficiency *string          `json:"class_energy_efficiency,omitempty"`
}

// Upload is one image file picked in the admin form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func imageParts(files []Upload) []clients.FilePart {
	parts := make([]clients.FilePart, 0, len(files))
	for _, f := range files {
		parts = append(parts, clients.FilePart{
			Field:       "images",
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Data:        f.Data,
		})
	}
	return parts
}

type ProductList struct {
	Items []clients.ProductSummary `json:"items"`
	PageInfo
}

type ProductManager struct {
	api     ProductAPI
	confirm Confirmer
	perPage int
	logger  *zap.Logger
}

func NewProductManager(api ProductAPI, confirm Confirmer, perPage int, logger *zap.Logger) *ProductManager {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &ProductManager{api: api, confirm: confirm, perPage: perPage, logger: logging.OrNop(logger)}
}

func (m *ProductManager) List(ctx context.Context, page int, search string) (ProductList, error) {
	page = normalizePage(page)
	res, err := m.api.List(ctx, (page-1)*m.perPage, m.perPage, search)
	if err != nil {
		return ProductList{}, err
	}
	items := res.Items
	if items == nil {
		items = []clients.ProductSummary{}
	}
	return ProductList{Items: items, PageInfo: pageInfo(res, page, m.perPage)}, nil
}

func (m *ProductManager) Get(ctx context.Context, id string) (clients.Product, error) {
	return m.api.Get(ctx, id)
}

func (m *ProductManager) Create(ctx context.Context, form ProductForm, images []Upload) (clients.Product, error) {
	body, err := clients.NewMultipart(form.Values(), imageParts(images))
	if err != nil {
		return clients.Product{}, err
	}
	p, err := m.api.Create(ctx, body)
	if err != nil {
		return clients.Product{}, err
	}
	m.logger.Info("product created", zap.String("product_id", p.ProductID), zap.Int("images", len(images)))
	return p, nil
}

func (m *ProductManager) Update(ctx context.Context, id string, in ProductUpdate) (clients.Product, error) {
	return m.api.Update(ctx, id, in)
}

func (m *ProductManager) Delete(ctx context.Context, id string) error {
	if err := ask(ctx, m.confirm, "delete product "+id); err != nil {
		return err
	}
	if err := m.api.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func (m *ProductManager) UploadImages(ctx context.Context, id string, images []Upload) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	body, err := clients.NewMultipart(nil, imageParts(images))
	if err != nil {
		return err
	}
	_, err = m.api.UploadImages(ctx, id, body)
	return err
}

func (m *ProductManager) DeleteImage(ctx context.Context, imageID string) error {
	if err := ask(ctx, m.confirm, "delete image "+imageID); err != nil {
		return err
	}
	return m.api.DeleteImage(ctx, imageID)
}

// ParseProductForm reads the create form as a browser submits it. A missing
// is_active checkbox means false.
func ParseProductForm(v url.Values) (ProductForm, error) {
	f := ProductForm{
		Name:                  v.Get("name"),
		Article:               v.Get("article"),
		Description:           v.Get("description"),
		Manufacturer:          v.Get("manufacturer"),
		ProductTechnology:     v.Get("product_technology"),
		Socket:                v.Get("socket"),
		Voltage:               v.Get("voltage"),
		ClassEnergyEfficiency: v.Get("class_energy_efficiency"),
	}
	switch v.Get("is_active") {
	case "", "false", "off", "0":
	default:
		f.IsActive = true
	}

	var err error
	if f.Price, err = parseDecimal(v, "price"); err != nil {
		return ProductForm{}, err
	}
	if f.Power, err = parseDecimal(v, "power"); err != nil {
		return ProductForm{}, err
	}
	if f.StockQuantity, err = parseInt(v, "stock_quantity"); err != nil {
		return ProductForm{}, err
	}
	if f.Lumens, err = parseOptionalInt(v, "lumens"); err != nil {
		return ProductForm{}, err
	}
	if f.ColorTemperature, err = parseOptionalInt(v, "color_temperature"); err != nil {
		return ProductForm{}, err
	}
	return f, nil
}

func parseDecimal(v url.Values, key string) (decimal.Decimal, error) {
	s := v.Get(key)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: not a number", key)
	}
	return d, nil
}

func parseInt(v url.Values, key string) (int, error) {
	p, err := parseOptionalInt(v, key)
	if err != nil || p == nil {
		return 0, err
	}
	return *p, nil
}

func parseOptionalInt(v url.Values, key string) (*int, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s: not a whole number", key)
	}
	return &n, nil
}
