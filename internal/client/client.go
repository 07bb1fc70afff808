package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Price is always a number once decoded, even when the server sent a numeric string.
type Price float64

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(b []byte) error {
	text := strings.TrimSpace(string(b))
	if text == "null" {
		*p = 0
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("client: price %s is not a number", string(b))
	}
	*p = Price(f)
	return nil
}

// Float64 returns the price as a float64.
func (p Price) Float64() float64 {
	return float64(p)
}

// Product is a catalog entry as returned by the API.
type Product struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Price       Price     `json:"price"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductPayload is the body sent on create and update.
type ProductPayload struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// FieldError is one server-side validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the catalog REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL, e.g. http://localhost:3000/api.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every product.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	var products []Product
	err := c.do(ctx, http.MethodGet, "/products", nil, listOf(&products), "failed to load products")
	return products, err
}

// Search fetches products matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	var products []Product
	path := "/products/search?q=" + url.QueryEscape(query)
	err := c.do(ctx, http.MethodGet, path, nil, listOf(&products), "failed to search products")
	return products, err
}

// Get fetches a single product.
func (c *Client) Get(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, productPath(id), nil, itemOf(&product), "failed to load product"); err != nil {
		return nil, err
	}
	return &product, nil
}

// Create stores a new product.
func (c *Client) Create(ctx context.Context, payload ProductPayload) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodPost, "/products", payload, itemOf(&product), "failed to create product"); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update overwrites a product.
func (c *Client) Update(ctx context.Context, id uint, payload ProductPayload) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodPut, productPath(id), payload, itemOf(&product), "failed to update product"); err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes a product.
func (c *Client) Delete(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil, "failed to delete product")
}

func productPath(id uint) string {
	return "/products/" + strconv.FormatUint(uint64(id), 10)
}

type decodeFunc func([]byte) error

// listOf accepts a bare array or an envelope with a data array.
func listOf(dst *[]Product) decodeFunc {
	return func(body []byte) error {
		trimmed := bytes.TrimSpace(body)
		if bytes.HasPrefix(trimmed, []byte("[")) {
			return json.Unmarshal(trimmed, dst)
		}
		var env struct {
			Data []Product `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return err
		}
		if env.Data == nil {
			env.Data = []Product{}
		}
		*dst = env.Data
		return nil
	}
}

// itemOf accepts a bare object or an envelope with a data object.
func itemOf(dst *Product) decodeFunc {
	return func(body []byte) error {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return err
		}
		if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			return json.Unmarshal(env.Data, dst)
		}
		return json.Unmarshal(body, dst)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, decode decodeFunc, fallback string) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw, fallback)
	}
	if decode == nil {
		return nil
	}
	if err := decode(raw); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte, fallback string) *APIError {
	apiErr := &APIError{StatusCode: status, Message: fmt.Sprintf("%s (HTTP %d)", fallback, status)}
	var env struct {
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			apiErr.Message = env.Message
		}
		apiErr.Fields = env.Errors
	}
	return apiErr
}
