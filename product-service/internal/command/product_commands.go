package command

import (
	"context"
	"strings"
	"time"

	"github.com/shopgrid/platform/product-service/internal/repository"
	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/models"
	"github.com/shopgrid/platform/shared/utils"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

type ProductCommandHandlers struct {
	repo      repository.ProductRepository
	publisher EventPublisher
	newID     func() string
	now       func() time.Time
}

func NewProductCommandHandlers(repo repository.ProductRepository, publisher EventPublisher) *ProductCommandHandlers {
	return &ProductCommandHandlers{
		repo:      repo,
		publisher: publisher,
		newID:     utils.NewID,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (h *ProductCommandHandlers) Routes() []cqrs.CommandRoute {
	return []cqrs.CommandRoute{
		{Name: cqrs.CreateProductCommandName, Handler: cqrs.HandleCommand(h.CreateProduct)},
	}
}

// CreateProduct adds a product to the catalogue and announces it once stored.
func (h *ProductCommandHandlers) CreateProduct(ctx context.Context, cmd cqrs.CreateProductCommand) (*models.Product, error) {
	now := h.now()
	product, err := h.repo.Create(ctx, &models.Product{
		ID:          h.newID(),
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Currency:    strings.ToUpper(cmd.Currency),
		Stock:       cmd.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	h.publisher.Publish(ctx, events.NewEvent(events.ProductCreated, events.ProductCreatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Currency:  product.Currency,
	}))
	return product, nil
}
