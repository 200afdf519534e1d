package medications

import "time"

// MedicationLogEntry es un uso puntual de medicación logueado ad hoc.
// No participa de la máquina de estados de dosis (eso es schedules);
// alimenta el conteo diario para correlaciones med×síntoma.
type MedicationLogEntry struct {
	ID          string
	OwnerUserID string

	Name  string
	Dose  string // texto libre: "200mg", "2 puffs"
	Notes string

	TakenAt time.Time // UTC
}
