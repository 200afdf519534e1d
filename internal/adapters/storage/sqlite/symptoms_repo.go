package sqlite

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
		) VALUES (?,?,?,?,?,?,?,?)
	`,
		e.ID,
		e.OwnerUserID,
		e.Name,
		e.Severity,
		e.Notes,
		clock.FormatStorage(e.StartAt),
		toNullStamp(e.EndAt),
		toNullStamp(e.DeletedAt),
	)
	return err
}

func (r *SymptomsRepo) GetByID(ctx context.Context, ownerUserID, id string) (symptoms.SymptomEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, severity, notes,
		       start_at, end_at, deleted_at
		FROM symptoms
		WHERE id = ? AND owner_user_id = ?
	`, id, ownerUserID)

	e, err := scanSymptom(row)
	if err == sql.ErrNoRows {
		// "no existe" y "no es tuyo" se reportan igual.
		return symptoms.SymptomEvent{}, symptoms.ErrNotFound
	}
	return e, err
}

func (r *SymptomsRepo) Update(ctx context.Context, e symptoms.SymptomEvent) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE symptoms
		SET name = ?, severity = ?, notes = ?, start_at = ?, end_at = ?
		WHERE id = ? AND owner_user_id = ?
	`,
		e.Name,
		e.Severity,
		e.Notes,
		clock.FormatStorage(e.StartAt),
		toNullStamp(e.EndAt),
		e.ID,
		e.OwnerUserID,
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
		WHERE owner_user_id = ? AND deleted_at IS NULL
	`
	args := []any{ownerUserID}

	if filter.From != nil {
		q += " AND start_at >= ?"
		args = append(args, clock.FormatStorage(*filter.From))
	}
	if filter.To != nil {
		q += " AND start_at <= ?"
		args = append(args, clock.FormatStorage(*filter.To))
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		q += " AND (name LIKE ? OR notes LIKE ?)"
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}

	q += " ORDER BY start_at DESC LIMIT ?"
	args = append(args, limit)

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
		SET deleted_at = ?
		WHERE id = ? AND owner_user_id = ? AND deleted_at IS NULL
	`, clock.FormatStorage(at), id, ownerUserID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	// 0 filas: o no existe, o ya estaba borrado.
	if _, err := r.GetByID(ctx, ownerUserID, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: already deleted", symptoms.ErrBadState)
}

func (r *SymptomsRepo) ClearDeleted(ctx context.Context, ownerUserID, id string, notBefore time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE symptoms
		SET deleted_at = NULL
		WHERE id = ? AND owner_user_id = ?
		  AND deleted_at IS NOT NULL AND deleted_at >= ?
	`, id, ownerUserID, clock.FormatStorage(notBefore))
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

// DailySeverityAverages agrega por (nombre, fecha UTC) y promedia.
// substr(start_at,1,10) corta el "YYYY-MM-DD" del timestamp de storage.
func (r *SymptomsRepo) DailySeverityAverages(ctx context.Context, ownerUserID string, from, to *time.Time) ([]insights.DailySeverity, error) {
	q := `
		SELECT name, substr(start_at, 1, 10), AVG(severity)
		FROM symptoms
		WHERE owner_user_id = ? AND deleted_at IS NULL
	`
	args := []any{ownerUserID}

	if from != nil {
		q += " AND substr(start_at, 1, 10) >= ?"
		args = append(args, from.Format(clock.DateLayout))
	}
	if to != nil {
		q += " AND substr(start_at, 1, 10) <= ?"
		args = append(args, to.Format(clock.DateLayout))
	}

	q += `
		GROUP BY name, substr(start_at, 1, 10)
		ORDER BY name, substr(start_at, 1, 10)
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
	var startAt string
	var endAt, deletedAt sql.NullString

	if err := row.Scan(
		&e.ID,
		&e.OwnerUserID,
		&e.Name,
		&e.Severity,
		&e.Notes,
		&startAt,
		&endAt,
		&deletedAt,
	); err != nil {
		return symptoms.SymptomEvent{}, err
	}

	var err error
	if e.StartAt, err = clock.ParseStorage(startAt); err != nil {
		return symptoms.SymptomEvent{}, fmt.Errorf("symptom %s: bad start_at: %w", e.ID, err)
	}
	if e.EndAt, err = fromNullStamp(endAt); err != nil {
		return symptoms.SymptomEvent{}, fmt.Errorf("symptom %s: bad end_at: %w", e.ID, err)
	}
	if e.DeletedAt, err = fromNullStamp(deletedAt); err != nil {
		return symptoms.SymptomEvent{}, fmt.Errorf("symptom %s: bad deleted_at: %w", e.ID, err)
	}
	return e, nil
}

func toNullStamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: clock.FormatStorage(*t), Valid: true}
}

func fromNullStamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := clock.ParseStorage(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
