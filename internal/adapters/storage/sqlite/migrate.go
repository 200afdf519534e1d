package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"symptom-journal/internal/platform/clock"
	"symptom-journal/internal/platform/logger"
)

// utcBackfillKey marca en app_meta que el backfill ya corrió.
const utcBackfillKey = "utc_backfill"

// MigrateTimestampsToUTC reescribe, una sola vez, los timestamps
// heredados que fueron guardados en hora local del server: cada valor
// se reinterpreta como wall-clock en loc y se reescribe como UTC.
// Idempotente vía app_meta; las filas con timestamps que no parsean se
// saltean (y se cuentan) en vez de abortar la migración entera.
func MigrateTimestampsToUTC(ctx context.Context, db *sql.DB, loc *time.Location, log logger.Logger) error {
	var done string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM app_meta WHERE key = ?`, utcBackfillKey,
	).Scan(&done)
	if err == nil && done == "done" {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read backfill flag: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	skipped := 0
	targets := []struct {
		table string
		cols  []string
	}{
		{"symptoms", []string{"start_at", "end_at", "deleted_at"}},
		{"medications", []string{"taken_at"}},
		{"medication_schedules", []string{"created_at"}},
	}
	for _, t := range targets {
		for _, col := range t.cols {
			n, err := backfillColumn(ctx, tx, loc, t.table, col)
			if err != nil {
				return err
			}
			skipped += n
		}
	}

	n, err := backfillDoses(ctx, tx, loc)
	if err != nil {
		return err
	}
	skipped += n

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO app_meta (key, value) VALUES (?, 'done')
		ON CONFLICT (key) DO UPDATE SET value = 'done'
	`, utcBackfillKey); err != nil {
		return fmt.Errorf("write backfill flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if skipped > 0 {
		log.Warn("utc backfill: rows skipped (unparseable timestamps)", map[string]any{
			"skipped": skipped,
		})
	}
	log.Info("utc backfill complete", map[string]any{"tz": loc.String()})
	return nil
}

func backfillColumn(ctx context.Context, tx *sql.Tx, loc *time.Location, table, col string) (skipped int, err error) {
	// table y col vienen de la lista fija de arriba, no de input.
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, %s FROM %s WHERE %s IS NOT NULL`, col, table, col,
	))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type upd struct{ id, val string }
	var updates []upd

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return skipped, err
		}
		conv, ok := reinterpret(raw, loc)
		if !ok {
			skipped++
			continue
		}
		updates = append(updates, upd{id, conv})
	}
	if err := rows.Err(); err != nil {
		return skipped, err
	}

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %s SET %s = ? WHERE id = ?`, table, col,
		), u.val, u.id); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// backfillDoses aparte: la tabla no tiene id, va por clave natural.
func backfillDoses(ctx context.Context, tx *sql.Tx, loc *time.Location) (skipped int, err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT schedule_id, scheduled_date, dose_num, taken_at
		FROM medication_doses
		WHERE taken_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type upd struct {
		sid, date string
		num       int
		val       string
	}
	var updates []upd

	for rows.Next() {
		var u upd
		var raw string
		if err := rows.Scan(&u.sid, &u.date, &u.num, &raw); err != nil {
			return skipped, err
		}
		conv, ok := reinterpret(raw, loc)
		if !ok {
			skipped++
			continue
		}
		u.val = conv
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return skipped, err
	}

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, `
			UPDATE medication_doses SET taken_at = ?
			WHERE schedule_id = ? AND scheduled_date = ? AND dose_num = ?
		`, u.val, u.sid, u.date, u.num); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// reinterpret parsea raw como wall-clock en loc y lo devuelve en UTC.
func reinterpret(raw string, loc *time.Location) (string, bool) {
	t, err := time.ParseInLocation(clock.StorageLayout, raw, loc)
	if err != nil {
		return "", false
	}
	return clock.FormatStorage(t), true
}
