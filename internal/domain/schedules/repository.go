package schedules

import (
	"context"
	"time"
)

type Repository interface {
	CreateSchedule(ctx context.Context, s MedicationSchedule) error
	GetSchedule(ctx context.Context, ownerUserID, id string) (MedicationSchedule, error)
	// ListSchedules ordena por nombre. onlyActive filtra bajas (Active=false).
	ListSchedules(ctx context.Context, ownerUserID string, onlyActive bool) ([]MedicationSchedule, error)
	UpdateSchedule(ctx context.Context, s MedicationSchedule) error

	// SetDoseStatus reemplaza atómicamente el registro de la clave natural
	// (schedule, fecha, slot): un solo upsert, nunca delete-luego-insert,
	// para que la clave no quede ausente entre dos requests concurrentes.
	SetDoseStatus(ctx context.Context, rec DoseRecord) error

	// ClearDose elimina el registro => el slot vuelve a pending.
	// Idempotente: sin registro no es error.
	ClearDose(ctx context.Context, ownerUserID, scheduleID string, date time.Time, doseNum int) error

	// ListDosesByDate: registros del owner para una fecha (todos los schedules).
	ListDosesByDate(ctx context.Context, ownerUserID string, date time.Time) ([]DoseRecord, error)

	// ListDosesInRange: registros de un schedule con fecha en [from..to].
	ListDosesInRange(ctx context.Context, ownerUserID, scheduleID string, from, to time.Time) ([]DoseRecord, error)

	// CountTakenSince: tomas de un schedule con fecha >= from (prn).
	CountTakenSince(ctx context.Context, ownerUserID, scheduleID string, from time.Time) (int, error)
}
