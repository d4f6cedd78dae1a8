package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/models"
	"github.com/shopgrid/platform/shared/utils"
)

// ProductRepository stores the catalogue. FindByID returns (nil, nil) for
// an unknown product and FindPage lists in creation order.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindPage(ctx context.Context, limit, offset int) ([]*models.Product, error)
}

// ---------- memory ----------

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products []models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{}
}

func (r *MemoryProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.ID == p.ID {
			return nil, models.Persistence("create product", fmt.Errorf("id %s already exists", p.ID))
		}
	}
	r.products = append(r.products, *p)
	stored := *p
	return &stored, nil
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *MemoryProductRepository) FindPage(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Product, 0, limit)
	for i := offset; i < len(r.products) && len(out) < limit; i++ {
		p := r.products[i]
		out = append(out, &p)
	}
	return out, nil
}

// ---------- postgres ----------

const productColumns = `id, name, description, price, currency, stock, created_at, updated_at`

// PostgresProductRepository is the PostgreSQL catalogue store.
type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + productColumns
	created, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.Stock, p.CreatedAt, p.UpdatedAt))
	if err != nil {
		return nil, models.Persistence("create product", err)
	}
	return created, nil
}

func (r *PostgresProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if !utils.IsID(id) {
		return nil, nil
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.Persistence("find product", err)
	}
	return p, nil
}

func (r *PostgresProductRepository) FindPage(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, models.Persistence("list products", err)
	}
	defer rows.Close()

	out := make([]*models.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, models.Persistence("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Persistence("list products", err)
	}
	return out, nil
}

// Open returns the repository named by url ("memory://" or a Postgres DSN).
func Open(ctx context.Context, url string, logger *logrus.Logger) (ProductRepository, func() error, error) {
	if url == "" || strings.HasPrefix(url, "memory://") {
		logger.Warn("using in-memory product repository; data is lost on restart")
		return NewMemoryProductRepository(), func() error { return nil }, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return NewPostgresProductRepository(db), db.Close, nil
}
