package postgres

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
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		e.ID,
		e.OwnerUserID,
		e.Name,
		e.Dose,
		e.Notes,
		e.TakenAt,
	)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, ownerUserID, id string) (medications.MedicationLogEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.MedicationLogEntry{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, dose, notes, taken_at
		FROM medications
		WHERE id = $1 AND owner_user_id = $2
	`, id, ownerUserID)

	var e medications.MedicationLogEntry
	if err := row.Scan(&e.ID, &e.OwnerUserID, &e.Name, &e.Dose, &e.Notes, &e.TakenAt); err != nil {
		if err == sql.ErrNoRows {
			return medications.MedicationLogEntry{}, medications.ErrNotFound
		}
		return medications.MedicationLogEntry{}, err
	}
	e.TakenAt = e.TakenAt.UTC()
	return e, nil
}

func (r *MedicationsRepo) Update(ctx context.Context, e medications.MedicationLogEntry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET name = $3, dose = $4, notes = $5, taken_at = $6
		WHERE id = $1 AND owner_user_id = $2
	`,
		e.ID,
		e.OwnerUserID,
		e.Name,
		e.Dose,
		e.Notes,
		e.TakenAt,
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
		DELETE FROM medications WHERE id = $1 AND owner_user_id = $2
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
		WHERE owner_user_id = $1
	`
	args := []any{ownerUserID}

	if filter.From != nil {
		args = append(args, *filter.From)
		q += fmt.Sprintf(" AND taken_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		q += fmt.Sprintf(" AND taken_at <= $%d", len(args))
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		args = append(args, "%"+s+"%")
		q += fmt.Sprintf(" AND (name ILIKE $%d OR notes ILIKE $%d)", len(args), len(args))
	}

	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY taken_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.MedicationLogEntry, 0)
	for rows.Next() {
		var e medications.MedicationLogEntry
		if err := rows.Scan(&e.ID, &e.OwnerUserID, &e.Name, &e.Dose, &e.Notes, &e.TakenAt); err != nil {
			return nil, err
		}
		e.TakenAt = e.TakenAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) DailyMedicationCounts(ctx context.Context, ownerUserID string, from, to *time.Time) ([]insights.DailyCount, error) {
	q := `
		SELECT name, to_char(taken_at, 'YYYY-MM-DD'), COUNT(*)
		FROM medications
		WHERE owner_user_id = $1
	`
	args := []any{ownerUserID}

	if from != nil {
		args = append(args, from.Format(clock.DateLayout))
		q += fmt.Sprintf(" AND to_char(taken_at, 'YYYY-MM-DD') >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.Format(clock.DateLayout))
		q += fmt.Sprintf(" AND to_char(taken_at, 'YYYY-MM-DD') <= $%d", len(args))
	}

	q += `
		GROUP BY name, to_char(taken_at, 'YYYY-MM-DD')
		ORDER BY name, to_char(taken_at, 'YYYY-MM-DD')
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
