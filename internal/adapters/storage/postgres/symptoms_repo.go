package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"symptom-journal/internal/domain/insights"
	"symptom-journal/internal/domain/symptoms"
	"symptom-journal/internal/platform/clock"
)

type SymptomsRepo struct {
	db *sql.DB
}

func NewSymptomsRepo(db *sql.DB) *SymptomsRepo {
	return &SymptomsRepo{db: db}
}

func (r *SymptomsRepo) Create(ctx context.Context, e symptoms.SymptomEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO symptoms (
			id, owner_user_id, name, severity, notes,
			start_at, end_at, deleted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		e.OwnerUserID,
		e.Name,
		e.Severity,
		e.Notes,
		e.StartAt,
		toNullTime(e.EndAt),
		toNullTime(e.DeletedAt),
	)
	return err
}

func (r *SymptomsRepo) GetByID(ctx context.Context, ownerUserID, id string) (symptoms.SymptomEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return symptoms.SymptomEvent{}, symptoms.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, severity, notes,
		       start_at, end_at, deleted_at
		FROM symptoms
		WHERE id = $1 AND owner_user_id = $2
	`, id, ownerUserID)

	e, err := scanSymptom(row)
	if err == sql.ErrNoRows {
		return symptoms.SymptomEvent{}, symptoms.ErrNotFound
	}
	return e, err
}

func (r *SymptomsRepo) Update(ctx context.Context, e symptoms.SymptomEvent) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE symptoms
		SET name = $3, severity = $4, notes = $5, start_at = $6, end_at = $7
		WHERE id = $1 AND owner_user_id = $2
	`,
		e.ID,
		e.OwnerUserID,
		e.Name,
		e.Severity,
		e.Notes,
		e.StartAt,
		toNullTime(e.EndAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return symptoms.ErrNotFound
	}
	return nil
}

func (r *SymptomsRepo) ListByOwner(ctx context.Context, ownerUserID string, filter symptoms.ListFilter) ([]symptoms.SymptomEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	q := `
		SELECT id, owner_user_id, name, severity, notes,
		       start_at, end_at, deleted_at
		FROM symptoms
		WHERE owner_user_id = $1 AND deleted_at IS NULL
	`
	args := []any{ownerUserID}

	if filter.From != nil {
		args = append(args, *filter.From)
		q += fmt.Sprintf(" AND start_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		q += fmt.Sprintf(" AND start_at <= $%d", len(args))
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		args = append(args, "%"+s+"%")
		q += fmt.Sprintf(" AND (name ILIKE $%d OR notes ILIKE $%d)", len(args), len(args))
	}

	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY start_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]symptoms.SymptomEvent, 0)
	for rows.Next() {
		e, err := scanSymptom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SymptomsRepo) MarkDeleted(ctx context.Context, ownerUserID, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE symptoms
		SET deleted_at = $3
		WHERE id = $1 AND owner_user_id = $2 AND deleted_at IS NULL
	`, id, ownerUserID, at)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, ownerUserID, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: already deleted", symptoms.ErrBadState)
}

func (r *SymptomsRepo) ClearDeleted(ctx context.Context, ownerUserID, id string, notBefore time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE symptoms
		SET deleted_at = NULL
		WHERE id = $1 AND owner_user_id = $2
		  AND deleted_at IS NOT NULL AND deleted_at >= $3
	`, id, ownerUserID, notBefore)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	e, err := r.GetByID(ctx, ownerUserID, id)
	if err != nil {
		return err
	}
	if e.DeletedAt == nil {
		return fmt.Errorf("%w: event is not deleted", symptoms.ErrBadState)
	}
	return symptoms.ErrUndoExpired
}

func (r *SymptomsRepo) DailySeverityAverages(ctx context.Context, ownerUserID string, from, to *time.Time) ([]insights.DailySeverity, error) {
	q := `
		SELECT name, to_char(start_at, 'YYYY-MM-DD'), AVG(severity)
		FROM symptoms
		WHERE owner_user_id = $1 AND deleted_at IS NULL
	`
	args := []any{ownerUserID}

	if from != nil {
		args = append(args, from.Format(clock.DateLayout))
		q += fmt.Sprintf(" AND to_char(start_at, 'YYYY-MM-DD') >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.Format(clock.DateLayout))
		q += fmt.Sprintf(" AND to_char(start_at, 'YYYY-MM-DD') <= $%d", len(args))
	}

	q += `
		GROUP BY name, to_char(start_at, 'YYYY-MM-DD')
		ORDER BY name, to_char(start_at, 'YYYY-MM-DD')
	`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]insights.DailySeverity, 0)
	for rows.Next() {
		var d insights.DailySeverity
		if err := rows.Scan(&d.Name, &d.Date, &d.AvgSeverity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSymptom(row rowScanner) (symptoms.SymptomEvent, error) {
	var e symptoms.SymptomEvent
	var endAt, deletedAt sql.NullTime

	if err := row.Scan(
		&e.ID,
		&e.OwnerUserID,
		&e.Name,
		&e.Severity,
		&e.Notes,
		&e.StartAt,
		&endAt,
		&deletedAt,
	); err != nil {
		return symptoms.SymptomEvent{}, err
	}

	e.StartAt = e.StartAt.UTC()
	e.EndAt = fromNullTime(endAt)
	e.DeletedAt = fromNullTime(deletedAt)
	return e, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
