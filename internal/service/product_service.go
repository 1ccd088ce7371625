package service

import (
	"context"
	"fmt"

	"atelier-commerce/internal/model"
	"atelier-commerce/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List returns a catalogue page in the sellable view.
func (s *productService) List(ctx context.Context, limit, offset int, availableOnly bool) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	page := make([]model.Product, 0, len(products))
	for _, p := range products {
		p = sellableView(p)
		if availableOnly && p.CountInStock <= 0 {
			continue
		}
		page = append(page, p)
	}

	s.logger.Debug().
		Int("count", len(page)).
		Int("limit", limit).
		Int("offset", offset).
		Bool("available_only", availableOnly).
		Msg("listed products")

	return page, nil
}

// Get retrieves a single product in the sellable view.
func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	view := sellableView(*product)
	return &view, nil
}

// sellableView drops exhausted size rows and recomputes the headline
// stock count from what is left. Unsized products pass through with
// their stored count.
func sellableView(p model.Product) model.Product {
	if len(p.Sizes) == 0 {
		return p
	}

	sizes := make([]model.SizeStock, 0, len(p.Sizes))
	total := 0
	for _, sz := range p.Sizes {
		if sz.Quantity <= 0 {
			continue
		}
		total += sz.Quantity
		sizes = append(sizes, sz)
	}

	p.Sizes = sizes
	p.CountInStock = total
	return p
}
