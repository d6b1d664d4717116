package websocket

import (
	"context"
	"fmt"

	"github.com/stakevault/stakevault_backend/salary"
)

// SalaryNotifier fans salary engine events out over the hub: the affected
// user gets a direct message, admins get a broadcast. It implements
// salary.Events; delivery is best-effort.
type SalaryNotifier struct {
	hub *Hub
}

func NewSalaryNotifier(hub *Hub) *SalaryNotifier {
	return &SalaryNotifier{hub: hub}
}

func (n *SalaryNotifier) RequestCreated(ctx context.Context, ev salary.CreatedEvent) {
	notification := Notification{
		Type:    NotificationTypeSalaryRequestCreated,
		Message: fmt.Sprintf("Salary request for %.0f USDT submitted for approval", ev.Amount),
		Data:    ev,
	}
	n.hub.SendToUser(ev.UserID, notification)
	n.hub.BroadcastToAdmins(notification)
}

func (n *SalaryNotifier) RequestTransitioned(ctx context.Context, ev salary.TransitionedEvent) {
	notification := Notification{
		Type:    NotificationTypeSalaryRequestProcessed,
		Message: fmt.Sprintf("Your salary request has been %s", ev.To),
		Data:    ev,
	}
	n.hub.SendToUser(ev.UserID, notification)
	n.hub.BroadcastToAdmins(notification)
}
