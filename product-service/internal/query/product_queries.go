package query

import (
	"context"

	"github.com/shopgrid/platform/product-service/internal/repository"
	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/models"
)

type ProductQueryHandlers struct {
	repo repository.ProductRepository
}

func NewProductQueryHandlers(repo repository.ProductRepository) *ProductQueryHandlers {
	return &ProductQueryHandlers{repo: repo}
}

func (h *ProductQueryHandlers) Routes() []cqrs.QueryRoute {
	return []cqrs.QueryRoute{
		{Name: cqrs.GetProductQueryName, Handler: cqrs.HandleQuery(h.GetProduct)},
		{Name: cqrs.GetProductsQueryName, Handler: cqrs.HandleQuery(h.GetProducts)},
	}
}

func (h *ProductQueryHandlers) GetProduct(ctx context.Context, q cqrs.GetProductQuery) (*models.Product, error) {
	return h.repo.FindByID(ctx, q.ProductID)
}

func (h *ProductQueryHandlers) GetProducts(ctx context.Context, q cqrs.GetProductsQuery) ([]*models.Product, error) {
	limit, offset, err := cqrs.ResolvePage(q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	return h.repo.FindPage(ctx, limit, offset)
}
