package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/storage"
)

// ProductInput - данные нового товара
type ProductInput struct {
	Name        string
	Season      string
	Description string
	ImageRef    *string
}

// CatalogService управляет товарами и их владельцами.
type CatalogService interface {
	CreateProduct(ctx context.Context, ownerID int64, in ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts возвращает все товары или только товары сезона, если season не пуст.
	ListProducts(ctx context.Context, season string) ([]*models.Product, error)
	ListOwned(ctx context.Context, ownerID int64) ([]*models.Product, error)
	TransferOwnership(ctx context.Context, tx *sql.Tx, productID, newOwnerID, expectedOwnerID int64) error
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, ownerID int64, in ProductInput) (*models.Product, error) {
	const op = "service.CatalogService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("ownerID", ownerID))

	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if ownerID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingID)
	}
	if name == "" || description == "" || in.Season == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidProduct)
	}
	season, ok := models.ParseSeason(in.Season)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSeason)
	}
	if in.ImageRef != nil && strings.TrimSpace(*in.ImageRef) == "" {
		in.ImageRef = nil
	}

	product, err := s.productRepo.CreateProduct(ctx, &models.Product{
		Name:        name,
		Season:      season,
		Description: description,
		ImageRef:    in.ImageRef,
		OwnerID:     ownerID,
	})
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	logger.Info("product created", slog.Int64("productID", product.ID))
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, season string) ([]*models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	var (
		products []*models.Product
		err      error
	)
	if season == "" {
		products, err = s.productRepo.ListProducts(ctx)
	} else {
		parsed, ok := models.ParseSeason(season)
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidSeason)
		}
		products, err = s.productRepo.ListProductsBySeason(ctx, parsed)
	}
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return products, nil
}

func (s *catalogService) ListOwned(ctx context.Context, ownerID int64) ([]*models.Product, error) {
	const op = "service.CatalogService.ListOwned"
	products, err := s.productRepo.ListProductsByOwner(ctx, ownerID)
	if err != nil {
		s.log.Error("failed to list owned products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return products, nil
}

// TransferOwnership выполняется только в транзакции расчёта сделки.
// Если владелец уже сменился, возвращается ErrConflict.
func (s *catalogService) TransferOwnership(ctx context.Context, tx *sql.Tx, productID, newOwnerID, expectedOwnerID int64) error {
	const op = "service.CatalogService.TransferOwnership"
	if err := s.productRepo.TransferOwnershipTx(ctx, tx, productID, newOwnerID, expectedOwnerID); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	s.log.Debug("ownership transferred",
		slog.String("op", op),
		slog.Int64("productID", productID),
		slog.Int64("from", expectedOwnerID),
		slog.Int64("to", newOwnerID),
	)
	return nil
}
