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

// LedgerResult is the outcome of a single ledger movement
type LedgerResult struct {
	NewBalance  int                     `json:"new_balance"`
	Transaction model.PointsTransaction `json:"transaction"`
}

// PointsService owns the write path to user balances and the append-only
// transaction log. Earn and Deduct are each a single unit of work: the
// balance update and the transaction row commit together or not at all.
// The Tx variants join an ambient transaction started by the caller, so
// composite operations (report resolution, redemption) stay atomic.
type PointsService interface {
	Earn(ctx context.Context, userID uuid.UUID, amount int, source string, referenceID *uuid.UUID, description string) (*LedgerResult, error)
	Deduct(ctx context.Context, userID uuid.UUID, amount int, referenceID *uuid.UUID, description string) (*LedgerResult, error)
	EarnTx(txCtx context.Context, userID uuid.UUID, amount int, source string, referenceID *uuid.UUID, description string) (*LedgerResult, error)
	DeductTx(txCtx context.Context, userID uuid.UUID, amount int, referenceID *uuid.UUID, description string) (*LedgerResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	GetHistory(ctx context.Context, userID uuid.UUID, page, limit int, filter repository.PointsHistoryFilter) ([]model.PointsTransaction, int64, error)
}

type pointsService struct {
	userRepo   repository.UserRepository
	pointsRepo repository.PointsRepository
	txManager  repository.TransactionManager
}

func NewPointsService(
	userRepo repository.UserRepository,
	pointsRepo repository.PointsRepository,
	txManager repository.TransactionManager,
) PointsService {
	return &pointsService{
		userRepo:   userRepo,
		pointsRepo: pointsRepo,
		txManager:  txManager,
	}
}

func (s *pointsService) Earn(ctx context.Context, userID uuid.UUID, amount int, source string, referenceID *uuid.UUID, description string) (*LedgerResult, error) {
	var result *LedgerResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		result, txErr = s.EarnTx(txCtx, userID, amount, source, referenceID, description)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *pointsService) Deduct(ctx context.Context, userID uuid.UUID, amount int, referenceID *uuid.UUID, description string) (*LedgerResult, error) {
	var result *LedgerResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		result, txErr = s.DeductTx(txCtx, userID, amount, referenceID, description)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EarnTx credits amount to the user inside the ambient transaction. The user
// row is locked for the remainder of the transaction, so movements for one
// user form a total order while different users proceed in parallel.
func (s *pointsService) EarnTx(txCtx context.Context, userID uuid.UUID, amount int, source string, referenceID *uuid.UUID, description string) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, apperror.InvalidState("earn amount must be positive, got %d", amount)
	}

	user, err := s.userRepo.FindByIDForUpdate(txCtx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	newBalance := user.Points + amount
	if err := s.userRepo.UpdatePoints(txCtx, userID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	tx := model.PointsTransaction{
		UserID:       userID,
		Type:         model.PointsTxEarn,
		Amount:       amount,
		Source:       source,
		ReferenceID:  referenceID,
		Description:  description,
		BalanceAfter: newBalance,
	}
	if err := s.pointsRepo.Create(txCtx, &tx); err != nil {
		return nil, fmt.Errorf("failed to record points transaction: %w", err)
	}

	return &LedgerResult{NewBalance: newBalance, Transaction: tx}, nil
}

// DeductTx debits amount from the user inside the ambient transaction.
// The balance check happens under the row lock, so concurrent deductions
// can never observe a stale balance or drive it negative.
func (s *pointsService) DeductTx(txCtx context.Context, userID uuid.UUID, amount int, referenceID *uuid.UUID, description string) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, apperror.InvalidState("deduct amount must be positive, got %d", amount)
	}

	user, err := s.userRepo.FindByIDForUpdate(txCtx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	if user.Points < amount {
		return nil, apperror.InsufficientFunds(amount, user.Points)
	}

	newBalance := user.Points - amount
	if err := s.userRepo.UpdatePoints(txCtx, userID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	tx := model.PointsTransaction{
		UserID:       userID,
		Type:         model.PointsTxRedeem,
		Amount:       amount,
		Source:       model.SourceProductRedemption,
		ReferenceID:  referenceID,
		Description:  description,
		BalanceAfter: newBalance,
	}
	if err := s.pointsRepo.Create(txCtx, &tx); err != nil {
		return nil, fmt.Errorf("failed to record points transaction: %w", err)
	}

	return &LedgerResult{NewBalance: newBalance, Transaction: tx}, nil
}

func (s *pointsService) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.NotFound("user")
		}
		return 0, fmt.Errorf("failed to load user: %w", err)
	}
	return user.Points, nil
}

func (s *pointsService) GetHistory(ctx context.Context, userID uuid.UUID, page, limit int, filter repository.PointsHistoryFilter) ([]model.PointsTransaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperror.NotFound("user")
		}
		return nil, 0, fmt.Errorf("failed to load user: %w", err)
	}
	return s.pointsRepo.ListByUser(ctx, userID, page, limit, filter)
}
