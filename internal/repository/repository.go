// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sudeepta/portfolio/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
	// Status filters by delivery status when non-empty.
	Status string
}

// DeliverySummary counts recorded deliveries by status.
type DeliverySummary struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// DeliveryRepository stores contact-mail delivery metadata.
type DeliveryRepository interface {
	// Record assigns an ID (and CreatedAt when zero) and stores d.
	Record(ctx context.Context, d *model.Delivery) error
	GetByID(ctx context.Context, id string) (*model.Delivery, error)
	// List returns deliveries newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Delivery, error)
	Summary(ctx context.Context) (DeliverySummary, error)
}
