package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents a redeemable catalog item.
// Stock is nil for unlimited availability, otherwise >= 0. Stock is mutated
// only inside the redemption unit of work; when a decrement lands on exactly
// zero, IsActive flips to false in the same update.
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	PointsCost  int            `gorm:"type:int;not null" json:"points_cost"`
	Category    string         `gorm:"type:varchar(100);index" json:"category"`
	Image       string         `gorm:"type:varchar(512)" json:"image"`
	IsActive    bool           `gorm:"not null;default:true;index" json:"is_active"`
	Stock       *int           `gorm:"type:int" json:"stock"` // nil = unlimited
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Available derives redeemability: active and either unlimited or in stock
func (p *Product) Available() bool {
	return p.IsActive && (p.Stock == nil || *p.Stock > 0)
}
