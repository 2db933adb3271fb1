package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/season-swap/internal/domain/models"
)

// ProductStorage описывает методы для работы с каталогом товаров.
type ProductStorage interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListProductsBySeason(ctx context.Context, season models.Season) ([]*models.Product, error)
	ListProductsByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error)
	// TransferOwnershipTx переназначает владельца, только если текущий владелец равен expectedOwnerID.
	TransferOwnershipTx(ctx context.Context, tx *sql.Tx, id, newOwnerID, expectedOwnerID int64) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, name, season, description, image_ref, owner_id, created_at"

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var imageRef sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Season, &p.Description, &imageRef, &p.OwnerID, &p.CreatedAt); err != nil {
		return nil, err
	}
	if imageRef.Valid {
		p.ImageRef = &imageRef.String
	}
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `INSERT INTO products (name, season, description, image_ref, owner_id)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		product.Name, product.Season, product.Description, product.ImageRef, product.OwnerID,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", mapPqError(err))
	}
	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
}

func (r *productRepository) ListProductsBySeason(ctx context.Context, season models.Season) ([]*models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products WHERE season = $1 ORDER BY id", season)
}

func (r *productRepository) ListProductsByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products WHERE owner_id = $1 ORDER BY id", ownerID)
}

func (r *productRepository) list(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) TransferOwnershipTx(ctx context.Context, tx *sql.Tx, id, newOwnerID, expectedOwnerID int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET owner_id = $1 WHERE id = $2 AND owner_id = $3",
		newOwnerID, id, expectedOwnerID,
	)
	if err != nil {
		return mapPqError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// товар либо удалён, либо уже сменил владельца
	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product: %w", mapPqError(err))
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrOwnerMismatch
}
