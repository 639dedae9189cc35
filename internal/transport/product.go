package transport

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/catalogue/internal/models"
)

var maxPrice = decimal.New(1, 8)

var (
	ErrPriceNotNumber   = errors.New("a valid number is required")
	ErrPriceNotPositive = errors.New("price must be a positive value")
	ErrPriceTooLarge    = errors.New("ensure that there are no more than 10 digits in total")
)

// Price keeps the raw JSON value so a malformed amount becomes a field
// error instead of failing the whole body.
type Price struct {
	Raw string
	Set bool
}

func (p *Price) UnmarshalJSON(b []byte) error {
	p.Set = true
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	p.Raw = raw
	return nil
}

// Parse returns the amount rounded to cents. It must be positive and fit
// decimal(10,2).
func (p Price) Parse() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(p.Raw)
	if err != nil {
		return decimal.Zero, ErrPriceNotNumber
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrPriceNotPositive
	}
	if d.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, ErrPriceTooLarge
	}
	return d, nil
}

func NewPrice(raw string) Price {
	return Price{Raw: raw, Set: true}
}

type CreateProductRequest struct {
	Name  string `json:"name"  validate:"required,max=255"`
	Brand string `json:"brand" validate:"required,max=255"`
	Price Price  `json:"price"`
}

func (r *CreateProductRequest) Validate() FieldErrors {
	trim(&r.Name)
	trim(&r.Brand)

	errs := validateStruct(r)
	if !r.Price.Set {
		errs["price"] = "this field is required"
	} else if _, err := r.Price.Parse(); err != nil {
		errs["price"] = err.Error()
	}
	return errs
}

type PatchProductRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=255"`
	Brand *string `json:"brand" validate:"omitempty,min=1,max=255"`
	Price Price   `json:"price"`
	Views *int    `json:"views"`
}

func (r *PatchProductRequest) Validate() FieldErrors {
	trim(r.Name)
	trim(r.Brand)

	errs := validateStruct(r)
	if r.Price.Set {
		if _, err := r.Price.Parse(); err != nil {
			errs["price"] = err.Error()
		}
	}
	return errs
}

type ProductResponse struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Price string `json:"price"`
	Views int    `json:"views"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		SKU:   p.SKU,
		Name:  p.Name,
		Brand: p.Brand,
		Price: p.Price.StringFixed(2),
		Views: p.Views,
	}
}

func NewProductResponses(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for i := range items {
		out = append(out, NewProductResponse(&items[i]))
	}
	return out
}

type ProductEnvelope struct {
	Message string          `json:"message"`
	Product ProductResponse `json:"product"`
}

type PageResponse struct {
	Count    int64             `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []ProductResponse `json:"results"`
}

type SearchResponse struct {
	Total    int64             `json:"total"`
	Products []ProductResponse `json:"products"`
}
