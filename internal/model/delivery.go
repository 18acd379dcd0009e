package model

import "time"

// Delivery statuses.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Delivery is the metadata of one contact-mail dispatch attempt.
//
// It deliberately carries no submission content (names, addresses,
// message): the submission itself is never persisted. ErrorKind is one of
// the apperror.Kind* labels.
type Delivery struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId,omitempty"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"errorKind"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}
