package websocket

import (
	"encoding/json"

	"backend/internal/model"

	"github.com/apex/log"
)

// Notifier broadcasts domain events to connected websocket clients.
// Delivery is fire-and-forget: a full broadcast queue or marshal failure is
// logged and dropped, never surfaced to the triggering operation.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

type statusChangedEvent struct {
	Event    string `json:"event"`
	ReportID string `json:"report_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
}

type redeemedEvent struct {
	Event        string `json:"event"`
	RedemptionID string `json:"redemption_id"`
	UserID       string `json:"user_id"`
	ProductID    string `json:"product_id"`
	PointsCost   int    `json:"points_cost"`
}

func (n *Notifier) NotifyStatusChanged(report *model.Report, newStatus, note string) {
	n.send(statusChangedEvent{
		Event:    "report_status_changed",
		ReportID: report.ID.String(),
		Title:    report.Title,
		Status:   newStatus,
		Note:     note,
	})
}

func (n *Notifier) NotifyRedeemed(redemption *model.Redemption) {
	n.send(redeemedEvent{
		Event:        "product_redeemed",
		RedemptionID: redemption.ID.String(),
		UserID:       redemption.UserID.String(),
		ProductID:    redemption.ProductID.String(),
		PointsCost:   redemption.PointsCost,
	})
}

func (n *Notifier) send(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("failed to marshal notification")
		return
	}
	select {
	case n.hub.Broadcast <- payload:
	default:
		log.Warn("notification dropped: broadcast queue full")
	}
}
