package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"symptom-journal/internal/platform/logger"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func quietLogger() logger.Logger {
	return logger.New(logger.Options{Level: logger.Error})
}

func startAt(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	var v string
	if err := db.QueryRow(`SELECT start_at FROM symptoms WHERE id = ?`, id).Scan(&v); err != nil {
		t.Fatalf("read start_at: %v", err)
	}
	return v
}

func TestMigrateTimestampsToUTC_ReinterpretsLocalTimes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Filas heredadas guardadas en hora local del server (UTC-5).
	mustExec(t, db, `
		INSERT INTO symptoms (id, owner_user_id, name, severity, start_at, end_at)
		VALUES ('s1', 'user-1', 'Headache', 5, '2025-06-01 10:00:00', '2025-06-01 11:30:00')
	`)
	mustExec(t, db, `
		INSERT INTO medications (id, owner_user_id, name, taken_at)
		VALUES ('m1', 'user-1', 'Ibuprofen', '2025-06-01 22:00:00')
	`)
	mustExec(t, db, `
		INSERT INTO medication_doses (schedule_id, owner_user_id, scheduled_date, dose_num, taken_at, status)
		VALUES ('sch1', 'user-1', '2025-06-01', 1, '2025-06-01 08:15:00', 'taken')
	`)

	loc := time.FixedZone("UTC-5", -5*60*60)
	if err := MigrateTimestampsToUTC(ctx, db, loc, quietLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if got := startAt(t, db, "s1"); got != "2025-06-01 15:00:00" {
		t.Fatalf("start_at = %q, want 2025-06-01 15:00:00", got)
	}
	var endAt string
	if err := db.QueryRow(`SELECT end_at FROM symptoms WHERE id = 's1'`).Scan(&endAt); err != nil {
		t.Fatalf("read end_at: %v", err)
	}
	if endAt != "2025-06-01 16:30:00" {
		t.Fatalf("end_at = %q, want 2025-06-01 16:30:00", endAt)
	}

	// 22:00 local cruza a las 03:00 UTC del día siguiente.
	var takenAt string
	if err := db.QueryRow(`SELECT taken_at FROM medications WHERE id = 'm1'`).Scan(&takenAt); err != nil {
		t.Fatalf("read taken_at: %v", err)
	}
	if takenAt != "2025-06-02 03:00:00" {
		t.Fatalf("medication taken_at = %q, want 2025-06-02 03:00:00", takenAt)
	}

	var doseTakenAt string
	if err := db.QueryRow(`
		SELECT taken_at FROM medication_doses
		WHERE schedule_id = 'sch1' AND scheduled_date = '2025-06-01' AND dose_num = 1
	`).Scan(&doseTakenAt); err != nil {
		t.Fatalf("read dose taken_at: %v", err)
	}
	if doseTakenAt != "2025-06-01 13:15:00" {
		t.Fatalf("dose taken_at = %q, want 2025-06-01 13:15:00", doseTakenAt)
	}
}

func TestMigrateTimestampsToUTC_SkipsMalformedRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	mustExec(t, db, `
		INSERT INTO symptoms (id, owner_user_id, name, severity, start_at)
		VALUES ('bad', 'user-1', 'Headache', 5, 'garbage-timestamp')
	`)
	mustExec(t, db, `
		INSERT INTO symptoms (id, owner_user_id, name, severity, start_at)
		VALUES ('good', 'user-1', 'Headache', 5, '2025-06-01 10:00:00')
	`)

	loc := time.FixedZone("UTC-5", -5*60*60)
	if err := MigrateTimestampsToUTC(ctx, db, loc, quietLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// La fila ilegible queda intacta; la sana migra igual.
	if got := startAt(t, db, "bad"); got != "garbage-timestamp" {
		t.Fatalf("malformed row changed to %q", got)
	}
	if got := startAt(t, db, "good"); got != "2025-06-01 15:00:00" {
		t.Fatalf("good row = %q, want 2025-06-01 15:00:00", got)
	}
}

func TestMigrateTimestampsToUTC_SecondRunIsNoOp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	loc := time.FixedZone("UTC-5", -5*60*60)

	mustExec(t, db, `
		INSERT INTO symptoms (id, owner_user_id, name, severity, start_at)
		VALUES ('s1', 'user-1', 'Headache', 5, '2025-06-01 10:00:00')
	`)
	if err := MigrateTimestampsToUTC(ctx, db, loc, quietLogger()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := startAt(t, db, "s1")

	// Correr de nuevo no debe volver a sumar el offset.
	if err := MigrateTimestampsToUTC(ctx, db, loc, quietLogger()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := startAt(t, db, "s1"); got != first {
		t.Fatalf("second run re-shifted: %q -> %q", first, got)
	}

	var flag string
	if err := db.QueryRow(`SELECT value FROM app_meta WHERE key = ?`, utcBackfillKey).Scan(&flag); err != nil {
		t.Fatalf("read flag: %v", err)
	}
	if flag != "done" {
		t.Fatalf("flag = %q, want done", flag)
	}
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec: %v", err)
	}
}
