package symptoms

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e SymptomEvent) error

	// GetByID incluye eventos borrados: el único caller que los necesita
	// es el chequeo de restore. Todo lo demás pasa por ListByOwner.
	GetByID(ctx context.Context, ownerUserID, id string) (SymptomEvent, error)

	Update(ctx context.Context, e SymptomEvent) error

	// ListByOwner excluye eventos con DeletedAt seteado.
	ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]SymptomEvent, error)

	// MarkDeleted setea DeletedAt solo si aún no está borrado
	// (read-modify-write atómico en el store).
	MarkDeleted(ctx context.Context, ownerUserID, id string, at time.Time) error

	// ClearDeleted limpia DeletedAt solo si está borrado y
	// DeletedAt >= notBefore (ventana de undo vigente).
	ClearDeleted(ctx context.Context, ownerUserID, id string, notBefore time.Time) error
}

type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Query string
	Limit int
}
