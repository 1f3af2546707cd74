package models

import "time"

// InvalidationEvent tells connected clients which cached views changed.
type InvalidationEvent struct {
	Type     string    `json:"type"`
	Keys     []string  `json:"keys"`
	At       time.Time `json:"at"`
	Accounts []string  `json:"-"`
}

// EventTypeInvalidate is the only event type pushed over websockets.
const EventTypeInvalidate = "invalidate"
