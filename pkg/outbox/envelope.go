package outbox

import (
	"encoding/json"
	"time"
)

// SourceRef identifies what produced the event. For webhook-driven events
// this carries the gateway identifiers so consumers can trace back.
type SourceRef struct {
	WebhookEventID string `json:"webhookEventId,omitempty"`
	TransactionID  string `json:"transactionId,omitempty"`
	Origin         string `json:"origin,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Source     *SourceRef      `json:"source,omitempty"`
	Data       json.RawMessage `json:"data"`
}
