package symptoms

import "time"

// SymptomEvent es una entrada del log de síntomas.
// Timestamps siempre en UTC (formato de storage); la conversión a hora
// del cliente ocurre en el borde (platform/clock).
type SymptomEvent struct {
	ID          string
	OwnerUserID string

	Name     string // texto libre, clave de agrupación
	Severity int    // 1..10
	Notes    string

	StartAt time.Time
	EndAt   *time.Time // opcional; si existe, estrictamente > StartAt

	// Soft delete: seteado => invisible para lecturas normales,
	// restaurable dentro de UndoWindow.
	DeletedAt *time.Time
}

const (
	SeverityMin = 1
	SeverityMax = 10
)
