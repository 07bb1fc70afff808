package forms_test

import (
	"testing"

	"catalog/internal/client"
	"catalog/internal/forms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductForm_Validate(t *testing.T) {
	payload, err := forms.ProductForm{Name: "  Lamp ", Price: " 19.90 ", Description: " warm light "}.Validate()
	require.NoError(t, err)
	assert.Equal(t, client.ProductPayload{Name: "Lamp", Price: 19.9, Description: "warm light"}, payload)
}

func TestProductForm_Rejects(t *testing.T) {
	cases := []struct {
		form forms.ProductForm
		want error
	}{
		{forms.ProductForm{Name: "   ", Price: "1"}, forms.ErrNameRequired},
		{forms.ProductForm{Name: "Lamp", Price: ""}, forms.ErrPriceInvalid},
		{forms.ProductForm{Name: "Lamp", Price: "abc"}, forms.ErrPriceInvalid},
		{forms.ProductForm{Name: "Lamp", Price: "0"}, forms.ErrPriceInvalid},
		{forms.ProductForm{Name: "Lamp", Price: "-2"}, forms.ErrPriceInvalid},
		{forms.ProductForm{Name: "Lamp", Price: "1e999999999"}, forms.ErrPriceInvalid},
		{forms.ProductForm{Name: "Lamp", Price: "1e-999999999"}, forms.ErrPriceInvalid},
	}
	for _, tc := range cases {
		_, err := tc.form.Validate()
		assert.ErrorIs(t, err, tc.want, "%+v", tc.form)
	}
}

func TestProductForm_FromProductAndReset(t *testing.T) {
	f := forms.FromProduct(client.Product{ID: 3, Name: "Mouse", Price: 25, Description: "wireless"})
	assert.Equal(t, forms.ProductForm{Name: "Mouse", Price: "25", Description: "wireless"}, f)

	f.Reset()
	assert.Equal(t, forms.ProductForm{}, f)
}
