package model

import (
	"time"

	"github.com/google/uuid"
)

// RedemptionStatus constants
const (
	RedemptionPending    = "pending"
	RedemptionProcessing = "processing"
	RedemptionCompleted  = "completed"
	RedemptionRejected   = "rejected"
)

var redemptionOrder = map[string]int{
	RedemptionPending:    0,
	RedemptionProcessing: 1,
	RedemptionCompleted:  2,
	RedemptionRejected:   2,
}

// ValidRedemptionStatus reports whether s is a legal redemption status value
func ValidRedemptionStatus(s string) bool {
	_, ok := redemptionOrder[s]
	return ok
}

// RedemptionTransitionAllowed enforces the forward-only status flow:
// pending -> processing -> completed, with rejected reachable from any
// non-terminal state. Completed and rejected are terminal.
func RedemptionTransitionAllowed(from, to string) bool {
	if !ValidRedemptionStatus(from) || !ValidRedemptionStatus(to) {
		return false
	}
	if from == RedemptionCompleted || from == RedemptionRejected {
		return false
	}
	if to == RedemptionRejected {
		return true
	}
	return redemptionOrder[to] == redemptionOrder[from]+1
}

// Redemption records one points-for-product exchange.
// PointsCost is a snapshot taken at redemption time and never tracks later
// product price changes. Rows are created only by the redemption workflow,
// in the same transaction that deducts points and decrements stock.
type Redemption struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product        *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	PointsCost     int        `gorm:"type:int;not null" json:"points_cost"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes          string     `gorm:"type:text" json:"notes"`
	AdminID        *uuid.UUID `gorm:"type:uuid" json:"admin_id"`
	Admin          *User      `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	ProcessingDate *time.Time `json:"processing_date"`
	CompletionDate *time.Time `json:"completion_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
