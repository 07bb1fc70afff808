package handlers

import (
	"errors"

	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/response"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	log     *logger.Logger
	// showErrors exposes internal error text in 500 responses.
	showErrors bool
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *logger.Logger, showErrors bool) *ProductHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ProductHandler{
		service:    service,
		log:        log,
		showErrors: showErrors,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	// Must precede /:id.
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return h.fail(c, err, "failed to fetch products")
	}
	return response.List(c, products, len(products))
}

// HandleSearchProducts matches ?q= against name and description.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	products, err := h.service.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return h.fail(c, err, "failed to search products")
	}
	return response.List(c, products, len(products))
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return response.Fail(c, fiber.StatusNotFound, "product not found")
	}
	product, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "failed to fetch product")
	}
	return response.OK(c, product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		h.log.Debug("rejected request body", logger.Fields{"error": err.Error()})
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	product, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return h.fail(c, err, "failed to create product")
	}
	return response.Created(c, "product created successfully", product)
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return response.Fail(c, fiber.StatusNotFound, "product not found")
	}
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		h.log.Debug("rejected request body", logger.Fields{"error": err.Error()})
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	product, err := h.service.Update(c.UserContext(), id, input)
	if err != nil {
		return h.fail(c, err, "failed to update product")
	}
	return response.Message(c, "product updated successfully", product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return response.Fail(c, fiber.StatusNotFound, "product not found")
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err, "failed to delete product")
	}
	return response.Message(c, "product deleted successfully", nil)
}

// productID accepts only positive integer ids.
func productID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *ProductHandler) fail(c *fiber.Ctx, err error, message string) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return response.Invalid(c, ve)
	case errors.Is(err, repositories.ErrProductNotFound):
		return response.Fail(c, fiber.StatusNotFound, "product not found")
	case errors.Is(err, services.ErrSearchQueryRequired):
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	h.log.Error(message, logger.Fields{
		"error":      err.Error(),
		"method":     c.Method(),
		"path":       c.Path(),
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	})
	return response.Internal(c, message, err, h.showErrors)
}
