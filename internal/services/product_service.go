package services

import (
	"context"
	"strings"
	"time"

	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/shopspring/decimal"
)

// ProductCache serves list-shaped reads and is invalidated after writes.
type ProductCache interface {
	FetchProducts(ctx context.Context, key string, loader func(context.Context) ([]models.Product, error)) ([]models.Product, error)
	Bump(ctx context.Context) error
}

// EventPublisher announces product mutations.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// Option configures a ProductService.
type Option func(*ProductService)

// WithCache enables the read cache.
func WithCache(c ProductCache) Option {
	return func(s *ProductService) { s.cache = c }
}

// WithPublisher enables mutation events.
func WithPublisher(p EventPublisher) Option {
	return func(s *ProductService) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *ProductService) {
		if l != nil {
			s.log = l
		}
	}
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	cache  ProductCache
	events EventPublisher
	log    *logger.Logger
	now    func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, opts ...Option) *ProductService {
	s := &ProductService{
		repo: repo,
		log:  logger.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll retrieves all products, newest first.
func (s *ProductService) ListAll(ctx context.Context) ([]models.Product, error) {
	products, err := s.fetch(ctx, "all", s.repo.GetAll)
	if err != nil {
		return nil, err
	}
	s.log.Debug("listed products", logger.Fields{"count": len(products)})
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (s *ProductService) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Search matches query against name and description.
func (s *ProductService) Search(ctx context.Context, query string) ([]models.Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrSearchQueryRequired
	}
	products, err := s.fetch(ctx, "search:"+strings.ToLower(q), func(ctx context.Context) ([]models.Product, error) {
		return s.repo.Search(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("searched products", logger.Fields{"query": q, "count": len(products)})
	return products, nil
}

// Create validates input and stores a new product.
func (s *ProductService) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	rules := productRules{Price: input.Price.String()}
	if input.Name != nil {
		rules.Name = strings.TrimSpace(*input.Name)
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:  rules.Name,
		Price: mustPrice(rules.Price),
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.log.Debug("created product", logger.Fields{"id": product.ID})
	s.afterMutation(ctx, models.EventProductCreated, product.ID, product)
	return product, nil
}

// Update applies the supplied fields to an existing product.
// A body with no recognised fields leaves the record untouched.
func (s *ProductService) Update(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name == nil && !input.Price.Present() && input.Description == nil {
		return product, nil
	}

	rules := productRules{
		Name:  product.Name,
		Price: decimal.NewFromFloat(product.Price).String(),
	}
	if input.Name != nil {
		rules.Name = strings.TrimSpace(*input.Name)
	}
	if input.Price.Present() {
		rules.Price = input.Price.String()
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	product.Name = rules.Name
	product.Price = mustPrice(rules.Price)
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.log.Debug("updated product", logger.Fields{"id": product.ID})
	s.afterMutation(ctx, models.EventProductUpdated, product.ID, product)
	return product, nil
}

// Delete removes a product by its ID.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Debug("deleted product", logger.Fields{"id": id})
	s.afterMutation(ctx, models.EventProductDeleted, id, nil)
	return nil
}

// Ping reports whether the underlying store is reachable.
func (s *ProductService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *ProductService) fetch(ctx context.Context, key string, loader func(context.Context) ([]models.Product, error)) ([]models.Product, error) {
	if s.cache == nil {
		return loader(ctx)
	}
	return s.cache.FetchProducts(ctx, key, loader)
}

func (s *ProductService) afterMutation(ctx context.Context, name string, id uint, product *models.Product) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.log.Warn("cache bump failed", logger.Fields{"error": err.Error()})
		}
	}
	if s.events == nil {
		return
	}
	event := models.ProductEvent{
		Event:      name,
		ProductID:  id,
		Product:    product,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishProductEvent(ctx, event); err != nil {
		s.log.Warn("publish product event failed", logger.Fields{"event": name, "id": id, "error": err.Error()})
	}
}

// mustPrice converts an already validated price to its stored form.
func mustPrice(raw string) float64 {
	d := decimal.RequireFromString(strings.TrimSpace(raw))
	return roundPrice(d).InexactFloat64()
}
