package symptoms

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"symptom-journal/internal/platform/clock"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]SymptomEvent
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]SymptomEvent{}}
}

func (r *testRepo) Create(ctx context.Context, e SymptomEvent) error {
	if e.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[e.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, ownerUserID, id string) (SymptomEvent, error) {
	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return SymptomEvent{}, ErrNotFound
	}
	return e, nil
}

func (r *testRepo) Update(ctx context.Context, e SymptomEvent) error {
	current, ok := r.byID[e.ID]
	if !ok || current.OwnerUserID != e.OwnerUserID {
		return ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]SymptomEvent, error) {
	out := make([]SymptomEvent, 0)
	for _, e := range r.byID {
		if e.OwnerUserID == ownerUserID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *testRepo) MarkDeleted(ctx context.Context, ownerUserID, id string, at time.Time) error {
	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return ErrNotFound
	}
	if e.DeletedAt != nil {
		return fmt.Errorf("%w: already deleted", ErrBadState)
	}
	e.DeletedAt = &at
	r.byID[id] = e
	return nil
}

func (r *testRepo) ClearDeleted(ctx context.Context, ownerUserID, id string, notBefore time.Time) error {
	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return ErrNotFound
	}
	if e.DeletedAt == nil {
		return fmt.Errorf("%w: event is not deleted", ErrBadState)
	}
	if e.DeletedAt.Before(notBefore) {
		return ErrUndoExpired
	}
	e.DeletedAt = nil
	r.byID[id] = e
	return nil
}

// -------------------------
// Tests
// -------------------------

func fixedClock(utc time.Time, offsetMin int) clock.Clock {
	return clock.Fixed(utc, &offsetMin)
}

func TestService_Log_NormalizesToUTC(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	// Cliente en UTC-5 (offset 300), 15:00 UTC = 10:00 local.
	clk := fixedClock(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC), 300)

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) // wall-clock local
	e, err := svc.Log(context.Background(), "user-1", clk, LogInput{
		Name:     "Headache",
		Severity: 6,
		StartAt:  start,
	})
	if err != nil {
		t.Fatalf("Log error: %v", err)
	}

	want := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	if !e.StartAt.Equal(want) {
		t.Fatalf("StartAt = %v, want %v (UTC)", e.StartAt, want)
	}
}

func TestService_Log_DefaultsStartToNow(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	clk := fixedClock(now, 0)

	e, err := svc.Log(context.Background(), "user-1", clk, LogInput{Name: "Nausea", Severity: 3})
	if err != nil {
		t.Fatalf("Log error: %v", err)
	}
	if !e.StartAt.Equal(now) {
		t.Fatalf("StartAt = %v, want %v", e.StartAt, now)
	}
}

func TestService_Log_Validation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 0)

	now := clk.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	beforeStart := past.Add(-time.Minute)

	cases := []struct {
		name string
		in   LogInput
	}{
		{"empty name", LogInput{Name: "  ", Severity: 5}},
		{"severity too low", LogInput{Name: "Headache", Severity: 0}},
		{"severity too high", LogInput{Name: "Headache", Severity: 11}},
		{"future start", LogInput{Name: "Headache", Severity: 5, StartAt: future}},
		{"end before start", LogInput{Name: "Headache", Severity: 5, StartAt: past, EndAt: &beforeStart}},
		{"end equals start", LogInput{Name: "Headache", Severity: 5, StartAt: past, EndAt: &past}},
	}
	for _, tc := range cases {
		if _, err := svc.Log(context.Background(), "user-1", clk, tc.in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestService_SoftDelete_HidesEvent(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 0)

	e, err := svc.Log(context.Background(), "user-1", clk, LogInput{Name: "Headache", Severity: 5})
	if err != nil {
		t.Fatalf("Log error: %v", err)
	}

	if err := svc.SoftDelete(context.Background(), "user-1", e.ID, clk); err != nil {
		t.Fatalf("SoftDelete error: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), "user-1", e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted event, got %v", err)
	}
	items, _ := svc.ListByOwner(context.Background(), "user-1", ListFilter{})
	if len(items) != 0 {
		t.Fatalf("expected deleted event out of listing, got %d items", len(items))
	}

	// Segundo delete: conflicto, no idempotente.
	if err := svc.SoftDelete(context.Background(), "user-1", e.ID, clk); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState on double delete, got %v", err)
	}
}

func TestService_Restore_WithinWindow(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := fixedClock(t0, 0)

	e, _ := svc.Log(context.Background(), "user-1", clk, LogInput{Name: "Headache", Severity: 5})
	if err := svc.SoftDelete(context.Background(), "user-1", e.ID, clk); err != nil {
		t.Fatalf("SoftDelete error: %v", err)
	}

	// 15s después: dentro de la ventana.
	later := fixedClock(t0.Add(15*time.Second), 0)
	restored, err := svc.Restore(context.Background(), "user-1", e.ID, later)
	if err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if restored.DeletedAt != nil {
		t.Fatalf("expected DeletedAt cleared")
	}

	if _, err := svc.GetByID(context.Background(), "user-1", e.ID); err != nil {
		t.Fatalf("expected event visible after restore, got %v", err)
	}
}

func TestService_Restore_ExpiredWindow(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := fixedClock(t0, 0)

	e, _ := svc.Log(context.Background(), "user-1", clk, LogInput{Name: "Headache", Severity: 5})
	_ = svc.SoftDelete(context.Background(), "user-1", e.ID, clk)

	// 21s después: ventana vencida, no muta nada.
	later := fixedClock(t0.Add(UndoWindow+time.Second), 0)
	if _, err := svc.Restore(context.Background(), "user-1", e.ID, later); !errors.Is(err, ErrUndoExpired) {
		t.Fatalf("expected ErrUndoExpired, got %v", err)
	}

	stored := repo.byID[e.ID]
	if stored.DeletedAt == nil {
		t.Fatalf("expected event to stay deleted after failed restore")
	}
}

func TestService_Restore_NotDeleted(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 0)

	e, _ := svc.Log(context.Background(), "user-1", clk, LogInput{Name: "Headache", Severity: 5})
	if _, err := svc.Restore(context.Background(), "user-1", e.ID, clk); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState, got %v", err)
	}
}

func TestService_Update_DeletedEventIsNotFound(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 0)

	e, _ := svc.Log(context.Background(), "user-1", clk, LogInput{Name: "Headache", Severity: 5})
	_ = svc.SoftDelete(context.Background(), "user-1", e.ID, clk)

	_, err := svc.Update(context.Background(), "user-1", e.ID, clk, UpdateInput{Name: "Migraine", Severity: 8})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating deleted event, got %v", err)
	}
}

func TestService_OwnerMismatchIsNotFound(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 0)

	e, _ := svc.Log(context.Background(), "user-1", clk, LogInput{Name: "Headache", Severity: 5})

	// Otro usuario no debe distinguir "no existe" de "no es mío".
	if _, err := svc.GetByID(context.Background(), "user-2", e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
	if err := svc.SoftDelete(context.Background(), "user-2", e.ID, clk); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting as other owner, got %v", err)
	}
}
