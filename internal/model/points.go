package model

import (
	"time"

	"github.com/google/uuid"
)

// PointsTransactionType constants
const (
	PointsTxEarn   = "earn"
	PointsTxRedeem = "redeem"
)

// PointsSource constants
const (
	SourceReportSubmission  = "report_submission"
	SourceReportResolved    = "report_resolved"
	SourceProductRedemption = "product_redemption"
	SourceAdminAdjustment   = "admin_adjustment"
	SourceOther             = "other"
)

// SubmissionReward is credited once per created report
const SubmissionReward = 25

var resolutionRewards = map[string]int{
	UrgencyLow:      50,
	UrgencyMedium:   100,
	UrgencyHigh:     150,
	UrgencyCritical: 200,
}

// ResolutionReward returns the points credited to the reporter when a report
// reaches resolved, scaled by its urgency. Unrecognized urgencies pay the
// medium amount.
func ResolutionReward(urgency string) int {
	if amount, ok := resolutionRewards[urgency]; ok {
		return amount
	}
	return 100
}

// PointsTransaction records a single ledger movement strictly.
// Rows are append-only: never updated, never deleted. BalanceAfter is the
// user's running total after this movement, so for any user the sequence
// ordered by creation forms a chain balance[i] = balance[i-1] +/- amount
// ending at the live User.Points value.
type PointsTransaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type         string     `gorm:"type:varchar(10);not null" json:"type"` // earn, redeem
	Amount       int        `gorm:"type:int;not null" json:"amount"`
	Source       string     `gorm:"type:varchar(30);not null;index" json:"source"`
	ReferenceID  *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"` // report or product, nullable
	Description  string     `gorm:"type:text" json:"description"`
	BalanceAfter int        `gorm:"type:int;not null" json:"balance_after"`
	CreatedAt    time.Time  `json:"created_at"`
}
