package service

import "backend/internal/model"

// Notifier is the fire-and-forget notification collaborator. Implementations
// must never fail the calling operation: delivery problems are logged and
// swallowed.
type Notifier interface {
	NotifyStatusChanged(report *model.Report, newStatus, note string)
	NotifyRedeemed(redemption *model.Redemption)
}

// NopNotifier drops all notifications
type NopNotifier struct{}

func (NopNotifier) NotifyStatusChanged(*model.Report, string, string) {}
func (NopNotifier) NotifyRedeemed(*model.Redemption)                  {}
