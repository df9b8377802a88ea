package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PointsCost  int    `json:"points_cost" binding:"required,gte=1"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Stock       *int   `json:"stock"` // nil = unlimited
}

type UpdateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PointsCost  int    `json:"points_cost" binding:"required,gte=1"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"is_active"`
	Stock       *int   `json:"stock"`
}

// ProductService owns the redeemable catalog. It never mutates stock: the
// only stock write path is the redemption unit of work.
type ProductService interface {
	Create(ctx context.Context, req CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, page, limit int, activeOnly bool) ([]model.Product, int64, error)
	IsAvailable(ctx context.Context, id uuid.UUID) (bool, error)
}

type productService struct {
	productRepo repository.ProductRepository
	txManager   repository.TransactionManager
}

func NewProductService(productRepo repository.ProductRepository, txManager repository.TransactionManager) ProductService {
	return &productService{productRepo: productRepo, txManager: txManager}
}

func (s *productService) Create(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	if req.PointsCost < 1 {
		return nil, apperror.InvalidState("points cost must be at least 1")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, apperror.InvalidState("stock cannot be negative")
	}

	product := model.Product{
		Name:        req.Name,
		Description: req.Description,
		PointsCost:  req.PointsCost,
		Category:    req.Category,
		Image:       req.Image,
		IsActive:    true,
		Stock:       req.Stock,
	}
	if req.Stock != nil && *req.Stock == 0 {
		product.IsActive = false
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Update edits a product under its row lock so admin edits serialize against
// in-flight redemptions instead of clobbering their stock decrement.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	if req.PointsCost < 1 {
		return nil, apperror.InvalidState("points cost must be at least 1")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, apperror.InvalidState("stock cannot be negative")
	}

	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		product, txErr = s.productRepo.FindByIDForUpdate(txCtx, id)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product")
			}
			return fmt.Errorf("failed to lock product: %w", txErr)
		}

		product.Name = req.Name
		product.Description = req.Description
		product.PointsCost = req.PointsCost
		product.Category = req.Category
		product.Image = req.Image
		product.Stock = req.Stock
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		// Restocking to zero forces inactive, keeping the availability invariant
		if product.Stock != nil && *product.Stock == 0 {
			product.IsActive = false
		}

		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product")
		}
		return fmt.Errorf("failed to load product: %w", err)
	}
	return s.productRepo.Delete(ctx, id)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, page, limit int, activeOnly bool) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, page, limit, activeOnly)
}

func (s *productService) IsAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return product.Available(), nil
}
