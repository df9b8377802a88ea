package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ImageList is an ordered set of image URLs persisted as a jsonb array
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ImageList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for ImageList")
}

// ReportStatus constants
const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in-progress"
	ReportStatusResolved   = "resolved"
	ReportStatusRejected   = "rejected"
)

// ReportCategory constants
const (
	CategoryRoads       = "roads"
	CategoryWater       = "water"
	CategoryElectricity = "electricity"
	CategoryWaste       = "waste"
	CategoryLighting    = "lighting"
	CategoryOther       = "other"
)

// Urgency constants, totally ordered low < medium < high < critical
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

var urgencyRanks = map[string]int{
	UrgencyLow:      1,
	UrgencyMedium:   2,
	UrgencyHigh:     3,
	UrgencyCritical: 4,
}

// UrgencyRank maps an urgency value to its position in the total order.
// Unrecognized values rank as medium.
func UrgencyRank(urgency string) int {
	if rank, ok := urgencyRanks[urgency]; ok {
		return rank
	}
	return 2
}

// ValidReportStatus reports whether s is one of the four legal status values
func ValidReportStatus(s string) bool {
	switch s {
	case ReportStatusPending, ReportStatusInProgress, ReportStatusResolved, ReportStatusRejected:
		return true
	}
	return false
}

// TerminalReportStatus reports whether no further transition is defined out of s
func TerminalReportStatus(s string) bool {
	return s == ReportStatusResolved || s == ReportStatusRejected
}

// ReportTransitionAllowed enforces the forward-only report flow:
// pending -> in-progress -> resolved | rejected, with pending allowed to jump
// straight to either terminal state. There is no edge back to pending and
// terminal states allow nothing out.
func ReportTransitionAllowed(from, to string) bool {
	if !ValidReportStatus(from) || !ValidReportStatus(to) {
		return false
	}
	if TerminalReportStatus(from) || from == to {
		return false
	}
	switch to {
	case ReportStatusPending:
		return false
	case ReportStatusInProgress:
		return from == ReportStatusPending
	default:
		return true
	}
}

// Report represents a citizen-filed infrastructure issue.
// Status and urgency are mutated only through the report service; the status
// history rows are the append-only audit trail and the last entry always
// matches the live Status field.
type Report struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"type:varchar(50);not null;index" json:"category"`

	Address     string  `gorm:"type:varchar(255)" json:"address"`
	City        string  `gorm:"type:varchar(100);index" json:"city"`
	Governorate string  `gorm:"type:varchar(100)" json:"governorate"`
	Latitude    float64 `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude   float64 `gorm:"type:decimal(10,7)" json:"longitude"`

	// Ordered image references, stored as a jsonb array of URLs
	Images ImageList `gorm:"type:jsonb;default:'[]'" json:"images"`

	Status  string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Urgency string `gorm:"type:varchar(20);not null;default:'medium'" json:"urgency"`

	ReporterID uuid.UUID  `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reporter   *User      `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	AdminID    *uuid.UUID `gorm:"type:uuid" json:"admin_id"`
	Admin      *User      `gorm:"foreignKey:AdminID" json:"admin,omitempty"`

	// AI analysis snapshot, nil until the enrichment worker has run
	AIClassification *string    `gorm:"type:varchar(100)" json:"ai_classification"`
	AIUrgency        *string    `gorm:"type:varchar(20)" json:"ai_urgency"`
	AIConfidence     *float64   `gorm:"type:decimal(4,3)" json:"ai_confidence"`
	AIAnalyzedAt     *time.Time `json:"ai_analyzed_at"`

	StatusHistory []ReportStatusHistory `gorm:"foreignKey:ReportID" json:"status_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportStatusHistory is one append-only entry in a report's audit trail
type ReportStatusHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReportID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"report_id"`
	Status    string     `gorm:"type:varchar(20);not null" json:"status"`
	ActorID   *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	Note      string     `gorm:"type:text" json:"note"`
	CreatedAt time.Time  `json:"created_at"`
}
