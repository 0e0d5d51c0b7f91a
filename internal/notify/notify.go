package notify

import (
	applog "vendora/internal/log"
)

// Template kinds sent by the core flows.
const (
	KindOrderPlaced         = "order-placed"
	KindOrderStatusChanged  = "order-status-changed"
	KindOrderCancelled      = "order-cancelled"
	KindReturnStatusChanged = "return-status-changed"
	KindPickupScheduled     = "pickup-scheduled"
)

// Dispatcher delivers buyer notifications. Calls are fire-and-forget:
// callers ignore the error, and implementations must never block a
// financial or inventory-affecting operation.
type Dispatcher interface {
	Dispatch(toEmail, kind string, payload map[string]any) error
}

// LogDispatcher writes the notification to the structured log instead of
// sending mail; the default wiring until a real mailer is plugged in.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(toEmail, kind string, payload map[string]any) error {
	fields := map[string]any{"to": toEmail, "kind": kind}
	for k, v := range payload {
		fields[k] = v
	}
	applog.Info(nil, "notify.dispatch", fields)
	return nil
}
