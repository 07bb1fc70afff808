package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Count   *int                  `json:"count"`
	Data    json.RawMessage       `json:"data"`
	Errors  []services.FieldError `json:"errors"`
	Error   string                `json:"error"`
}

// setupApp sets up a Fiber app for testing with in-memory SQLite.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	productRepo := repositories.NewGORMProductRepository(db)
	require.NoError(t, productRepo.Migrate(context.Background()))
	seedProductsForTest(t, productRepo)

	productService := services.NewProductService(productRepo)
	productHandler := handlers.NewProductHandler(productService, nil, false)

	app := fiber.New()
	productHandler.RegisterRoutes(app.Group("/api"))
	return app
}

// seedProductsForTest populates the product repository for tests.
func seedProductsForTest(t *testing.T, repo repositories.ProductRepository) {
	products := []models.Product{
		{Name: "Test Laptop", Description: "For testing purposes", Price: 1000.00},
		{Name: "Test Monitor", Description: "Another test item", Price: 200.00},
	}
	for i := range products {
		require.NoError(t, repo.Create(context.Background(), &products[i]))
	}
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if s, ok := body.(string); ok {
		reader = strings.NewReader(s)
	} else if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeProduct(t *testing.T, raw json.RawMessage) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func TestProductEndpoints_CRUD(t *testing.T) {
	app := setupApp(t)

	// --- GET /products ---
	status, env := doJSON(t, app, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
	var listed []models.Product
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "Test Monitor", listed[0].Name)

	// --- POST /products with a string price ---
	status, env = doJSON(t, app, http.MethodPost, "/api/products", `{"name":"Smartphone","description":"Latest model","price":"799.99"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "product created successfully", env.Message)
	created := decodeProduct(t, env.Data)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 799.99, created.Price)
	assert.Contains(t, string(env.Data), `"price":799.99`)

	target := "/api/products/" + jsonNumber(created.ID)

	// --- GET /products/:id ---
	status, env = doJSON(t, app, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusOK, status)
	fetched := decodeProduct(t, env.Data)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, 799.99, fetched.Price)
	assert.Contains(t, string(env.Data), `"price":799.99`)

	// --- PUT /products/:id ---
	status, env = doJSON(t, app, http.MethodPut, target, map[string]interface{}{"name": "Smartphone Pro"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "product updated successfully", env.Message)
	updated := decodeProduct(t, env.Data)
	assert.Equal(t, "Smartphone Pro", updated.Name)
	assert.Equal(t, 799.99, updated.Price)
	assert.Equal(t, "Latest model", updated.Description)

	// --- DELETE /products/:id ---
	status, env = doJSON(t, app, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "product deleted successfully", env.Message)

	status, env = doJSON(t, app, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "product not found", env.Message)
}

func TestProductEndpoints_Validation(t *testing.T) {
	app := setupApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{"name": "A", "price": "abc"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, "validation failed", env.Message)
	assert.ElementsMatch(t, []services.FieldError{
		{Field: "name", Message: "name must be between 2 and 100 characters"},
		{Field: "price", Message: "price must be a decimal number"},
	}, env.Errors)

	status, env = doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{"name": "Widget", "price": -1})
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "price must be greater than 0", env.Errors[0].Message)

	status, env = doJSON(t, app, http.MethodPost, "/api/products", `{"name":"ab","price":1e999999999}`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "price must not exceed 99999999.99", env.Errors[0].Message)

	status, env = doJSON(t, app, http.MethodPut, "/api/products/1", `{"price":"1e-999999999"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "price must be a decimal number", env.Errors[0].Message)

	status, env = doJSON(t, app, http.MethodPost, "/api/products", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid request body", env.Message)
}

func TestProductEndpoints_InvalidIDs(t *testing.T) {
	app := setupApp(t)

	for _, id := range []string{"0", "-3", "abc", "999"} {
		status, env := doJSON(t, app, http.MethodGet, "/api/products/"+id, nil)
		assert.Equal(t, http.StatusNotFound, status, id)
		assert.Equal(t, "product not found", env.Message, id)
	}

	status, _ := doJSON(t, app, http.MethodPut, "/api/products/999", map[string]interface{}{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/products/999", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProductEndpoints_UpdateEmptyBody(t *testing.T) {
	app := setupApp(t)

	status, env := doJSON(t, app, http.MethodPut, "/api/products/1", map[string]interface{}{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Test Laptop", decodeProduct(t, env.Data).Name)
}

func TestProductEndpoints_Search(t *testing.T) {
	app := setupApp(t)

	status, env := doJSON(t, app, http.MethodGet, "/api/products/search?q=MONITOR", nil)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	status, env = doJSON(t, app, http.MethodGet, "/api/products/search?q=testing", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, *env.Count)

	status, env = doJSON(t, app, http.MethodGet, "/api/products/search?q=nothing-here", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, *env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = doJSON(t, app, http.MethodGet, "/api/products/search", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "search query is required", env.Message)
}

func jsonNumber(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestProductEndpoints_Lifecycle(t *testing.T) {
	app := setupApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "iPhone 15", "price": 999.99, "description": "",
	})
	require.Equal(t, http.StatusCreated, status)
	created := decodeProduct(t, env.Data)
	assert.NotZero(t, created.ID)

	target := "/api/products/" + jsonNumber(created.ID)
	status, env = doJSON(t, app, http.MethodPut, target, map[string]interface{}{"price": 899.99})
	require.Equal(t, http.StatusOK, status)
	updated := decodeProduct(t, env.Data)
	assert.Equal(t, 899.99, updated.Price)
	assert.Equal(t, "iPhone 15", updated.Name)

	status, _ = doJSON(t, app, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = doJSON(t, app, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}
