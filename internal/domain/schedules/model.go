package schedules

import "time"

// MedicationSchedule es un régimen prescripto.
// StartDate es fecha de calendario (medianoche UTC, sin hora);
// CreatedAt es el instante UTC de alta.
type MedicationSchedule struct {
	ID          string
	OwnerUserID string

	Name  string
	Dose  string
	Notes string

	Frequency Frequency
	StartDate time.Time
	CreatedAt time.Time

	Active bool
	Paused bool
}

// DoseRecord es el registro persistido de un slot resuelto.
// Clave natural: (ScheduleID, ScheduledDate, DoseNum) — a lo sumo un
// registro por clave; la ausencia de registro significa pending.
type DoseRecord struct {
	ScheduleID  string
	OwnerUserID string

	ScheduledDate time.Time // fecha de calendario
	DoseNum       int       // 1..dosesPerDay, o contador creciente para prn

	TakenAt *time.Time // UTC; nil cuando Status es missed
	Status  DoseStatus // taken | missed
}
