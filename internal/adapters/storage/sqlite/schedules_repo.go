package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"symptom-journal/internal/domain/schedules"
	"symptom-journal/internal/platform/clock"
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
		) VALUES (?,?,?,?,?,?,?,?,?,?)
	`,
		s.ID,
		s.OwnerUserID,
		s.Name,
		s.Dose,
		s.Notes,
		string(s.Frequency),
		s.StartDate.Format(clock.DateLayout),
		clock.FormatStorage(s.CreatedAt),
		boolToInt(s.Active),
		boolToInt(s.Paused),
	)
	return err
}

func (r *SchedulesRepo) GetSchedule(ctx context.Context, ownerUserID, id string) (schedules.MedicationSchedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, dose, notes,
		       frequency, start_date, created_at, active, paused
		FROM medication_schedules
		WHERE id = ? AND owner_user_id = ?
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
		WHERE owner_user_id = ?
	`
	if onlyActive {
		q += " AND active = 1"
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
		SET name = ?, dose = ?, notes = ?, frequency = ?,
		    start_date = ?, active = ?, paused = ?
		WHERE id = ? AND owner_user_id = ?
	`,
		s.Name,
		s.Dose,
		s.Notes,
		string(s.Frequency),
		s.StartDate.Format(clock.DateLayout),
		boolToInt(s.Active),
		boolToInt(s.Paused),
		s.ID,
		s.OwnerUserID,
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

// SetDoseStatus: un solo upsert sobre la clave natural. Nunca
// delete-luego-insert, para que la clave no quede ausente a mitad
// de camino ante requests concurrentes.
func (r *SchedulesRepo) SetDoseStatus(ctx context.Context, rec schedules.DoseRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medication_doses (
			schedule_id, owner_user_id, scheduled_date, dose_num, taken_at, status
		) VALUES (?,?,?,?,?,?)
		ON CONFLICT (schedule_id, scheduled_date, dose_num) DO UPDATE SET
			owner_user_id = excluded.owner_user_id,
			taken_at = excluded.taken_at,
			status = excluded.status
	`,
		rec.ScheduleID,
		rec.OwnerUserID,
		rec.ScheduledDate.Format(clock.DateLayout),
		rec.DoseNum,
		toNullStamp(rec.TakenAt),
		string(rec.Status),
	)
	return err
}

func (r *SchedulesRepo) ClearDose(ctx context.Context, ownerUserID, scheduleID string, date time.Time, doseNum int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM medication_doses
		WHERE schedule_id = ? AND owner_user_id = ?
		  AND scheduled_date = ? AND dose_num = ?
	`, scheduleID, ownerUserID, date.Format(clock.DateLayout), doseNum)
	return err
}

func (r *SchedulesRepo) ListDosesByDate(ctx context.Context, ownerUserID string, date time.Time) ([]schedules.DoseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT schedule_id, owner_user_id, scheduled_date, dose_num, taken_at, status
		FROM medication_doses
		WHERE owner_user_id = ? AND scheduled_date = ?
		ORDER BY schedule_id, dose_num
	`, ownerUserID, date.Format(clock.DateLayout))
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
		WHERE owner_user_id = ? AND schedule_id = ?
		  AND scheduled_date >= ? AND scheduled_date <= ?
		ORDER BY scheduled_date, dose_num
	`, ownerUserID, scheduleID, from.Format(clock.DateLayout), to.Format(clock.DateLayout))
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
		WHERE owner_user_id = ? AND schedule_id = ?
		  AND status = ? AND scheduled_date >= ?
	`, ownerUserID, scheduleID, string(schedules.DoseTaken), from.Format(clock.DateLayout)).Scan(&n)
	return n, err
}

func collectDoses(rows *sql.Rows) ([]schedules.DoseRecord, error) {
	out := make([]schedules.DoseRecord, 0)
	for rows.Next() {
		var rec schedules.DoseRecord
		var date, status string
		var takenAt sql.NullString

		if err := rows.Scan(
			&rec.ScheduleID,
			&rec.OwnerUserID,
			&date,
			&rec.DoseNum,
			&takenAt,
			&status,
		); err != nil {
			return nil, err
		}

		d, err := clock.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("dose %s/%s: bad scheduled_date: %w", rec.ScheduleID, date, err)
		}
		rec.ScheduledDate = d
		rec.Status = schedules.DoseStatus(status)
		if rec.TakenAt, err = fromNullStamp(takenAt); err != nil {
			return nil, fmt.Errorf("dose %s/%s: bad taken_at: %w", rec.ScheduleID, date, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (schedules.MedicationSchedule, error) {
	var s schedules.MedicationSchedule
	var freq, startDate, createdAt string
	var active, paused int

	if err := row.Scan(
		&s.ID,
		&s.OwnerUserID,
		&s.Name,
		&s.Dose,
		&s.Notes,
		&freq,
		&startDate,
		&createdAt,
		&active,
		&paused,
	); err != nil {
		return schedules.MedicationSchedule{}, err
	}

	s.Frequency = schedules.Frequency(freq)
	s.Active = active != 0
	s.Paused = paused != 0

	var err error
	if s.StartDate, err = clock.ParseDate(startDate); err != nil {
		return schedules.MedicationSchedule{}, fmt.Errorf("schedule %s: bad start_date: %w", s.ID, err)
	}
	if s.CreatedAt, err = clock.ParseStorage(createdAt); err != nil {
		return schedules.MedicationSchedule{}, fmt.Errorf("schedule %s: bad created_at: %w", s.ID, err)
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
