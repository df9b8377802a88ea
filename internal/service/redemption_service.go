package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedeemResult is the outcome of a successful redemption
type RedeemResult struct {
	Redemption       model.Redemption `json:"redemption"`
	PointsDeducted   int              `json:"points_deducted"`
	RemainingBalance int              `json:"remaining_balance"`
}

type UpdateRedemptionRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// RedemptionService coordinates the catalog and the points ledger. Redeem is
// the one multi-entity unit of work in the system: redemption record, points
// deduction and stock decrement commit together or not at all.
type RedemptionService interface {
	Redeem(ctx context.Context, userID, productID uuid.UUID) (*RedeemResult, error)
	UpdateStatus(ctx context.Context, redemptionID uuid.UUID, newStatus string, adminID uuid.UUID, notes string) (*model.Redemption, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Redemption, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Redemption, int64, error)
}

type redemptionService struct {
	redemptionRepo repository.RedemptionRepository
	productRepo    repository.ProductRepository
	points         PointsService
	txManager      repository.TransactionManager
	notifier       Notifier
}

func NewRedemptionService(
	redemptionRepo repository.RedemptionRepository,
	productRepo repository.ProductRepository,
	points PointsService,
	txManager repository.TransactionManager,
	notifier Notifier,
) RedemptionService {
	return &redemptionService{
		redemptionRepo: redemptionRepo,
		productRepo:    productRepo,
		points:         points,
		txManager:      txManager,
		notifier:       notifier,
	}
}

// Redeem locks the product row first and the user row second (always in that
// order, so redemptions cannot deadlock against plain ledger operations),
// re-checks availability and balance under the locks, then applies all three
// effects. Two requests racing for the last unit serialize on the product
// lock: the loser re-reads stock 0 and fails with Unavailable.
func (s *redemptionService) Redeem(ctx context.Context, userID, productID uuid.UUID) (*RedeemResult, error) {
	var result *RedeemResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product")
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		if !product.Available() {
			return apperror.Unavailable("product " + product.Name)
		}

		redemption := model.Redemption{
			UserID:     userID,
			ProductID:  productID,
			PointsCost: product.PointsCost,
			Status:     model.RedemptionPending,
		}
		if err := s.redemptionRepo.Create(txCtx, &redemption); err != nil {
			return fmt.Errorf("failed to create redemption: %w", err)
		}

		// Locks the user row and fails with NotFound / InsufficientFunds
		// before any balance is touched.
		refID := productID
		ledger, err := s.points.DeductTx(txCtx, userID, product.PointsCost, &refID,
			"Redeemed product: "+product.Name)
		if err != nil {
			return err
		}

		if product.Stock != nil {
			newStock := *product.Stock - 1
			if newStock < 0 {
				return apperror.OutOfStock("product " + product.Name)
			}
			stillActive := product.IsActive && newStock > 0
			if err := s.productRepo.UpdateStock(txCtx, productID, newStock, stillActive); err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
		}

		result = &RedeemResult{
			Redemption:       redemption,
			PointsDeducted:   product.PointsCost,
			RemainingBalance: ledger.NewBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRedeemed(&result.Redemption)

	return result, nil
}

// UpdateStatus applies the forward-only redemption flow. Processing and
// completion dates are stamped on the first entry into those states only;
// a retried identical update is a no-op and does not reset them.
func (s *redemptionService) UpdateStatus(ctx context.Context, redemptionID uuid.UUID, newStatus string, adminID uuid.UUID, notes string) (*model.Redemption, error) {
	if !model.ValidRedemptionStatus(newStatus) {
		return nil, apperror.InvalidState("invalid redemption status: %s", newStatus)
	}

	var redemption *model.Redemption
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		redemption, txErr = s.redemptionRepo.FindByID(txCtx, redemptionID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("redemption")
			}
			return fmt.Errorf("failed to load redemption: %w", txErr)
		}

		if redemption.Status == newStatus {
			// Idempotent retry
			return nil
		}
		if !model.RedemptionTransitionAllowed(redemption.Status, newStatus) {
			return apperror.InvalidState("cannot move redemption from %s to %s", redemption.Status, newStatus)
		}

		now := time.Now()
		redemption.Status = newStatus
		redemption.AdminID = &adminID
		if notes != "" {
			redemption.Notes = notes
		}
		switch newStatus {
		case model.RedemptionProcessing:
			if redemption.ProcessingDate == nil {
				redemption.ProcessingDate = &now
			}
		case model.RedemptionCompleted:
			if redemption.CompletionDate == nil {
				redemption.CompletionDate = &now
			}
		}

		if err := s.redemptionRepo.Update(txCtx, redemption); err != nil {
			return fmt.Errorf("failed to update redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return redemption, nil
}

func (s *redemptionService) Get(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	redemption, err := s.redemptionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("redemption")
		}
		return nil, fmt.Errorf("failed to load redemption: %w", err)
	}
	return redemption, nil
}

func (s *redemptionService) List(ctx context.Context, page, limit int, status string) ([]model.Redemption, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.redemptionRepo.List(ctx, page, limit, status)
}

func (s *redemptionService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Redemption, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.redemptionRepo.ListByUser(ctx, userID, page, limit)
}
