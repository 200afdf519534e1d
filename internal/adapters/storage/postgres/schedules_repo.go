package postgres

import (
	"context"
	"database/sql"
	"time"

	"symptom-journal/internal/domain/schedules"
)

type SchedulesRepo struct {
	db *sql.DB
}

func NewSchedulesRepo(db *sql.DB) *SchedulesRepo {
	return &SchedulesRepo{db: db}
}

func (r *SchedulesRepo) CreateSchedule(ctx context.Context, s schedules.MedicationSchedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medication_schedules (
			id, owner_user_id, name, dose, notes,
			frequency, start_date, created_at, active, paused
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		s.ID,
		s.OwnerUserID,
		s.Name,
		s.Dose,
		s.Notes,
		string(s.Frequency),
		s.StartDate,
		s.CreatedAt,
		s.Active,
		s.Paused,
	)
	return err
}

func (r *SchedulesRepo) GetSchedule(ctx context.Context, ownerUserID, id string) (schedules.MedicationSchedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, dose, notes,
		       frequency, start_date, created_at, active, paused
		FROM medication_schedules
		WHERE id = $1 AND owner_user_id = $2
	`, id, ownerUserID)

	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return schedules.MedicationSchedule{}, schedules.ErrNotFound
	}
	return s, err
}

func (r *SchedulesRepo) ListSchedules(ctx context.Context, ownerUserID string, onlyActive bool) ([]schedules.MedicationSchedule, error) {
	q := `
		SELECT id, owner_user_id, name, dose, notes,
		       frequency, start_date, created_at, active, paused
		FROM medication_schedules
		WHERE owner_user_id = $1
	`
	if onlyActive {
		q += " AND active"
	}
	q += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, q, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schedules.MedicationSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SchedulesRepo) UpdateSchedule(ctx context.Context, s schedules.MedicationSchedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medication_schedules
		SET name = $3, dose = $4, notes = $5, frequency = $6,
		    start_date = $7, active = $8, paused = $9
		WHERE id = $1 AND owner_user_id = $2
	`,
		s.ID,
		s.OwnerUserID,
		s.Name,
		s.Dose,
		s.Notes,
		string(s.Frequency),
		s.StartDate,
		s.Active,
		s.Paused,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schedules.ErrNotFound
	}
	return nil
}

// SetDoseStatus: upsert único sobre la clave natural, nunca
// delete-luego-insert.
func (r *SchedulesRepo) SetDoseStatus(ctx context.Context, rec schedules.DoseRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medication_doses (
			schedule_id, owner_user_id, scheduled_date, dose_num, taken_at, status
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (schedule_id, scheduled_date, dose_num) DO UPDATE SET
			owner_user_id = EXCLUDED.owner_user_id,
			taken_at = EXCLUDED.taken_at,
			status = EXCLUDED.status
	`,
		rec.ScheduleID,
		rec.OwnerUserID,
		rec.ScheduledDate,
		rec.DoseNum,
		toNullTime(rec.TakenAt),
		string(rec.Status),
	)
	return err
}

func (r *SchedulesRepo) ClearDose(ctx context.Context, ownerUserID, scheduleID string, date time.Time, doseNum int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM medication_doses
		WHERE schedule_id = $1 AND owner_user_id = $2
		  AND scheduled_date = $3 AND dose_num = $4
	`, scheduleID, ownerUserID, date, doseNum)
	return err
}

func (r *SchedulesRepo) ListDosesByDate(ctx context.Context, ownerUserID string, date time.Time) ([]schedules.DoseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT schedule_id, owner_user_id, scheduled_date, dose_num, taken_at, status
		FROM medication_doses
		WHERE owner_user_id = $1 AND scheduled_date = $2
		ORDER BY schedule_id, dose_num
	`, ownerUserID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoses(rows)
}

func (r *SchedulesRepo) ListDosesInRange(ctx context.Context, ownerUserID, scheduleID string, from, to time.Time) ([]schedules.DoseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT schedule_id, owner_user_id, scheduled_date, dose_num, taken_at, status
		FROM medication_doses
		WHERE owner_user_id = $1 AND schedule_id = $2
		  AND scheduled_date >= $3 AND scheduled_date <= $4
		ORDER BY scheduled_date, dose_num
	`, ownerUserID, scheduleID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoses(rows)
}

func (r *SchedulesRepo) CountTakenSince(ctx context.Context, ownerUserID, scheduleID string, from time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM medication_doses
		WHERE owner_user_id = $1 AND schedule_id = $2
		  AND status = $3 AND scheduled_date >= $4
	`, ownerUserID, scheduleID, string(schedules.DoseTaken), from).Scan(&n)
	return n, err
}

func collectDoses(rows *sql.Rows) ([]schedules.DoseRecord, error) {
	out := make([]schedules.DoseRecord, 0)
	for rows.Next() {
		var rec schedules.DoseRecord
		var status string
		var takenAt sql.NullTime

		if err := rows.Scan(
			&rec.ScheduleID,
			&rec.OwnerUserID,
			&rec.ScheduledDate,
			&rec.DoseNum,
			&takenAt,
			&status,
		); err != nil {
			return nil, err
		}

		// scheduled_date es DATE: pgx lo mapea a medianoche UTC.
		rec.ScheduledDate = rec.ScheduledDate.UTC()
		rec.Status = schedules.DoseStatus(status)
		rec.TakenAt = fromNullTime(takenAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (schedules.MedicationSchedule, error) {
	var s schedules.MedicationSchedule
	var freq string

	if err := row.Scan(
		&s.ID,
		&s.OwnerUserID,
		&s.Name,
		&s.Dose,
		&s.Notes,
		&freq,
		&s.StartDate,
		&s.CreatedAt,
		&s.Active,
		&s.Paused,
	); err != nil {
		return schedules.MedicationSchedule{}, err
	}

	s.Frequency = schedules.Frequency(freq)
	s.StartDate = s.StartDate.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}
