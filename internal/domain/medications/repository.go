package medications

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e MedicationLogEntry) error
	GetByID(ctx context.Context, ownerUserID, id string) (MedicationLogEntry, error)
	Update(ctx context.Context, e MedicationLogEntry) error
	Delete(ctx context.Context, ownerUserID, id string) error
	ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]MedicationLogEntry, error)
}

type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Query string
	Limit int
}
