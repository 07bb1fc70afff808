package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement" db:"id"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null" db:"name"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null" db:"price"`
	Description string    `json:"description" gorm:"type:text" db:"description"`
	CreatedAt   time.Time `json:"created_at" gorm:"index" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName pins the GORM table name.
func (Product) TableName() string {
	return "products"
}

// ProductInput is the body accepted by create and update. Nil fields were not supplied.
type ProductInput struct {
	Name        *string    `json:"name"`
	Price       PriceValue `json:"price"`
	Description *string    `json:"description"`
}

// ErrPriceMissing is returned by PriceValue.Decimal when no usable value was supplied.
var ErrPriceMissing = errors.New("price missing")

// PriceValue keeps a price exactly as it arrived: a JSON number or a JSON string.
// Decoding never fails so that a bad value surfaces as a field error instead.
type PriceValue struct {
	raw     string
	present bool
}

// NewPriceValue builds a supplied price from its textual form.
func NewPriceValue(raw string) PriceValue {
	return PriceValue{raw: raw, present: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PriceValue) UnmarshalJSON(b []byte) error {
	p.present = true
	text := strings.TrimSpace(string(b))
	switch {
	case text == "null":
		p.raw = ""
	case strings.HasPrefix(text, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			p.raw = text
			return nil
		}
		p.raw = s
	default:
		p.raw = text
	}
	return nil
}

// Present reports whether the field appeared in the body, even as null.
func (p PriceValue) Present() bool {
	return p.present
}

// String returns the trimmed raw text.
func (p PriceValue) String() string {
	return strings.TrimSpace(p.raw)
}

// Decimal parses the raw text. Strings and numbers go through the same path.
func (p PriceValue) Decimal() (decimal.Decimal, error) {
	s := p.String()
	if s == "" {
		return decimal.Zero, ErrPriceMissing
	}
	return decimal.NewFromString(s)
}

// Product event names published after a successful mutation.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEvent is the message body sent to the product_events queue.
type ProductEvent struct {
	Event      string    `json:"event"`
	ProductID  uint      `json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
