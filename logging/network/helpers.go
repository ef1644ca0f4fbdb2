package network

import (
	"context"

	"dustveil/server/logging"
)

const (
	// EventSendFailed is emitted when a broadcast write to a session fails.
	EventSendFailed logging.EventType = "network.send_failed"
)

// SendFailedPayload records the write error that killed the session.
type SendFailedPayload struct {
	Error string `json:"error"`
}

// SendFailed publishes a failed write event for a session.
func SendFailed(ctx context.Context, pub logging.Publisher, tick uint64, sessionID string, err error) {
	if pub == nil {
		return
	}
	payload := SendFailedPayload{}
	if err != nil {
		payload.Error = err.Error()
	}
	event := logging.Event{
		Type:     EventSendFailed,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: sessionID, Kind: logging.EntityKindSession},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}
