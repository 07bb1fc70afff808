package forms

import (
	"errors"
	"strconv"
	"strings"

	"catalog/internal/client"

	"github.com/shopspring/decimal"
)

var (
	// ErrNameRequired is returned for a blank name.
	ErrNameRequired = errors.New("name is required")
	// ErrPriceInvalid is returned for a price that is not a positive number of sane magnitude.
	ErrPriceInvalid = errors.New("price must be a positive number")
)

// maxPriceExponent bounds the exponent before any decimal arithmetic.
const maxPriceExponent = 20

// ProductForm holds the raw text of the create and edit screens.
type ProductForm struct {
	Name        string
	Price       string
	Description string
}

// FromProduct fills a form for editing p.
func FromProduct(p client.Product) ProductForm {
	return ProductForm{
		Name:        p.Name,
		Price:       strconv.FormatFloat(p.Price.Float64(), 'f', -1, 64),
		Description: p.Description,
	}
}

// Validate checks the form and builds the payload sent to the API.
func (f ProductForm) Validate() (client.ProductPayload, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return client.ProductPayload{}, ErrNameRequired
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil || price.Exponent() > maxPriceExponent || price.Exponent() < -maxPriceExponent || !price.IsPositive() {
		return client.ProductPayload{}, ErrPriceInvalid
	}
	return client.ProductPayload{
		Name:        name,
		Price:       price.InexactFloat64(),
		Description: strings.TrimSpace(f.Description),
	}, nil
}

// Reset clears every field, as after a successful create.
func (f *ProductForm) Reset() {
	*f = ProductForm{}
}
