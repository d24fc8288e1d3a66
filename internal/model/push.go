package model

import (
	"encoding/json"
	"time"
)

// PushSubscription is a registered web push endpoint with its desired local
// delivery time.
type PushSubscription struct {
	ID           string          `json:"id"`
	Endpoint     string          `json:"endpoint"`
	Subscription json.RawMessage `json:"subscriptionPayload"`
	Timezone     string          `json:"tz"`
	Hour         int             `json:"hour"`
	Minute       int             `json:"minute"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"createdAt"`
	// LastSentDate is the subscriber-local YYYY-MM-DD of the last delivery.
	// Only maintained when daily de-duplication is enabled.
	LastSentDate string `json:"lastSentDate,omitempty"`
}

// PushDevice is the browser-side subscription registered for this client.
type PushDevice struct {
	Subscription json.RawMessage `json:"subscription"`
	Timezone     string          `json:"tz"`
}
