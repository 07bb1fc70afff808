package services

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxPrice is the largest price a DECIMAL(10,2) column holds.
var MaxPrice = decimal.RequireFromString("99999999.99")

// ErrSearchQueryRequired is returned by Search for a blank query.
var ErrSearchQueryRequired = fmt.Errorf("search query is required")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// productRules is the normalized form checked before a write.
type productRules struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Price string `json:"price" validate:"required,decimal,positive,max_price"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, ok := parsePrice(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, ok := parsePrice(fl.Field().String())
		if !ok {
			return false
		}
		if d.Exponent() > priceExponentLimit {
			return d.Sign() > 0
		}
		return roundPrice(d).IsPositive()
	})
	_ = v.RegisterValidation("max_price", func(fl validator.FieldLevel) bool {
		d, ok := parsePrice(fl.Field().String())
		if !ok || d.Exponent() > priceExponentLimit {
			return false
		}
		return roundPrice(d).LessThanOrEqual(MaxPrice)
	})
	return v
}

// priceExponentLimit bounds the exponent of an accepted price. Rounding or comparing a
// decimal rescales its coefficient by 10^exponent, so larger exponents are never touched.
const priceExponentLimit = 20

// parsePrice parses a price and rejects exponents too small to round cheaply.
// Exponents above the limit parse but must be handled without arithmetic.
func parsePrice(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil || d.Exponent() < -priceExponentLimit {
		return decimal.Zero, false
	}
	return d, true
}

func roundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func validateRules(r productRules) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Errors: make([]FieldError, 0, len(ve))}
	for _, fe := range ve {
		out.Errors = append(out.Errors, FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max":
		return fe.Field() + " must be between 2 and 100 characters"
	case "decimal":
		return fe.Field() + " must be a decimal number"
	case "positive":
		return fe.Field() + " must be greater than 0"
	case "max_price":
		return fe.Field() + " must not exceed " + MaxPrice.StringFixed(2)
	default:
		return fe.Field() + " is invalid"
	}
}
