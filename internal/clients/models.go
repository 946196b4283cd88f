package clients

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Timestamps are kept as strings: the services emit naive ISO datetimes.

// Page is a list envelope. Some services return a bare JSON array instead;
// in that case only Items is set and TotalCount stays nil.
type Page[T any] struct {
	Items      []T  `json:"items"`
	TotalCount *int `json:"total_count,omitempty"`
	Page       *int `json:"page,omitempty"`
	Limit      *int `json:"limit,omitempty"`
	Pages      *int `json:"pages,omitempty"`
}

// pageEnvelope has Page's fields without its UnmarshalJSON.
type pageEnvelope[T any] Page[T]

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Items: items}
		return nil
	}
	var out pageEnvelope[T]
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = Page[T](out)
	return nil
}

type ProductSummary struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Article      string          `json:"article"`
	Price        decimal.Decimal `json:"price"`
	MainImageURL *string         `json:"main_image_url"`
}

type ProductImage struct {
	ProductImageID string `json:"product_image_id"`
	ProductID      string `json:"product_id,omitempty"`
	ImageURL       string `json:"image_url"`
	UploadAt       string `json:"upload_at,omitempty"`
}

type Product struct {
	ProductID             string          `json:"product_id"`
	Name                  string          `json:"name"`
	Article               string          `json:"article"`
	Description           *string         `json:"description"`
	Price                 decimal.Decimal `json:"price"`
	StockQuantity         int             `json:"stock_quantity"`
	IsActive              bool            `json:"is_active"`
	Manufacturer          string          `json:"manufacturer"`
	ProductTechnology     string          `json:"product_technology"`
	Socket                string          `json:"socket"`
	Power                 decimal.Decimal `json:"power"`
	Lumens                *int            `json:"lumens"`
	ColorTemperature      *int            `json:"color_temperature"`
	Voltage               *string         `json:"voltage"`
	ClassEnergyEfficiency *string         `json:"class_energy_efficiency"`
	CreatedAt             string          `json:"created_at"`
	UpdatedAt             string          `json:"updated_at"`
	Images                []ProductImage  `json:"images"`
}

type Promocode struct {
	PromocodeID   string           `json:"promocode_id,omitempty"`
	PromocodeName string           `json:"promocode_name"`
	Percent       *int             `json:"percent"`
	Value         *decimal.Decimal `json:"value"`
	MinOrderCost  *decimal.Decimal `json:"min_order_cost"`
	IsActive      bool             `json:"is_active"`
}

type OrderItemCreate struct {
	ProductID   string          `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Name        string          `json:"name"`
	PricePerOne decimal.Decimal `json:"price_per_one"`
}

type OrderCreate struct {
	CustomerSurname      string            `json:"customer_surname"`
	CustomerFirstName    string            `json:"customer_first_name"`
	CustomerEmail        string            `json:"customer_email"`
	CustomerPhoneNumber  string            `json:"customer_phone_number"`
	PromocodeNameApplied *string           `json:"promocode_name_applied"`
	Items                []OrderItemCreate `json:"items"`
}

type OrderItem struct {
	OrderItemID string          `json:"order_item_id,omitempty"`
	ProductID   string          `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Name        string          `json:"name"`
	PricePerOne decimal.Decimal `json:"price_per_one"`
}

type Order struct {
	OrderID              string          `json:"order_id"`
	Number               string          `json:"number"`
	Status               string          `json:"status"`
	CustomerSurname      string          `json:"customer_surname"`
	CustomerFirstName    string          `json:"customer_first_name"`
	CustomerEmail        string          `json:"customer_email"`
	CustomerPhoneNumber  string          `json:"customer_phone_number"`
	PromocodeNameApplied *string         `json:"promocode_name_applied"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalCostWithPromo   decimal.Decimal `json:"total_cost_with_promo"`
	CreatedAt            string          `json:"created_at"`
	UpdatedAt            string          `json:"updated_at"`
	Items                []OrderItem     `json:"items"`
	PromocodeDetails     *Promocode      `json:"promocode_applied_details,omitempty"`
}

type OrderSummary struct {
	OrderID            string          `json:"order_id"`
	Number             string          `json:"number"`
	Status             string          `json:"status"`
	CustomerFirstName  string          `json:"customer_first_name"`
	CustomerSurname    string          `json:"customer_surname"`
	TotalCostWithPromo decimal.Decimal `json:"total_cost_with_promo"`
	CreatedAt          string          `json:"created_at"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
