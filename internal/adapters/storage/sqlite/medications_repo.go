package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"symptom-journal/internal/domain/insights"
	"symptom-journal/internal/domain/medications"
	"symptom-journal/internal/platform/clock"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

func (r *MedicationsRepo) Create(ctx context.Context, e medications.MedicationLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (id, owner_user_id, name, dose, notes, taken_at)
		VALUES (?,?,?,?,?,?)
	`,
		e.ID,
		e.OwnerUserID,
		e.Name,
		e.Dose,
		e.Notes,
		clock.FormatStorage(e.TakenAt),
	)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, ownerUserID, id string) (medications.MedicationLogEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, dose, notes, taken_at
		FROM medications
		WHERE id = ? AND owner_user_id = ?
	`, id, ownerUserID)

	e, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return medications.MedicationLogEntry{}, medications.ErrNotFound
	}
	return e, err
}

func (r *MedicationsRepo) Update(ctx context.Context, e medications.MedicationLogEntry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET name = ?, dose = ?, notes = ?, taken_at = ?
		WHERE id = ? AND owner_user_id = ?
	`,
		e.Name,
		e.Dose,
		e.Notes,
		clock.FormatStorage(e.TakenAt),
		e.ID,
		e.OwnerUserID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) Delete(ctx context.Context, ownerUserID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM medications WHERE id = ? AND owner_user_id = ?
	`, id, ownerUserID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) ListByOwner(ctx context.Context, ownerUserID string, filter medications.ListFilter) ([]medications.MedicationLogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	q := `
		SELECT id, owner_user_id, name, dose, notes, taken_at
		FROM medications
		WHERE owner_user_id = ?
	`
	args := []any{ownerUserID}

	if filter.From != nil {
		q += " AND taken_at >= ?"
		args = append(args, clock.FormatStorage(*filter.From))
	}
	if filter.To != nil {
		q += " AND taken_at <= ?"
		args = append(args, clock.FormatStorage(*filter.To))
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		q += " AND (name LIKE ? OR notes LIKE ?)"
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}

	q += " ORDER BY taken_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.MedicationLogEntry, 0)
	for rows.Next() {
		e, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) DailyMedicationCounts(ctx context.Context, ownerUserID string, from, to *time.Time) ([]insights.DailyCount, error) {
	q := `
		SELECT name, substr(taken_at, 1, 10), COUNT(*)
		FROM medications
		WHERE owner_user_id = ?
	`
	args := []any{ownerUserID}

	if from != nil {
		q += " AND substr(taken_at, 1, 10) >= ?"
		args = append(args, from.Format(clock.DateLayout))
	}
	if to != nil {
		q += " AND substr(taken_at, 1, 10) <= ?"
		args = append(args, to.Format(clock.DateLayout))
	}

	q += `
		GROUP BY name, substr(taken_at, 1, 10)
		ORDER BY name, substr(taken_at, 1, 10)
	`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]insights.DailyCount, 0)
	for rows.Next() {
		var d insights.DailyCount
		if err := rows.Scan(&d.Name, &d.Date, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanMedication(row rowScanner) (medications.MedicationLogEntry, error) {
	var e medications.MedicationLogEntry
	var takenAt string

	if err := row.Scan(
		&e.ID,
		&e.OwnerUserID,
		&e.Name,
		&e.Dose,
		&e.Notes,
		&takenAt,
	); err != nil {
		return medications.MedicationLogEntry{}, err
	}

	var err error
	if e.TakenAt, err = clock.ParseStorage(takenAt); err != nil {
		return medications.MedicationLogEntry{}, fmt.Errorf("medication %s: bad taken_at: %w", e.ID, err)
	}
	return e, nil
}
