package schedules

import (
	"context"
	"errors"
	"testing"
	"time"

	"symptom-journal/internal/platform/clock"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testDoseKey struct {
	scheduleID string
	date       string
	doseNum    int
}

type testRepo struct {
	byID  map[string]MedicationSchedule
	doses map[testDoseKey]DoseRecord
}

func newTestRepo() *testRepo {
	return &testRepo{
		byID:  map[string]MedicationSchedule{},
		doses: map[testDoseKey]DoseRecord{},
	}
}

func (r *testRepo) CreateSchedule(ctx context.Context, s MedicationSchedule) error {
	if s.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[s.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) GetSchedule(ctx context.Context, ownerUserID, id string) (MedicationSchedule, error) {
	s, ok := r.byID[id]
	if !ok || s.OwnerUserID != ownerUserID {
		return MedicationSchedule{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) ListSchedules(ctx context.Context, ownerUserID string, onlyActive bool) ([]MedicationSchedule, error) {
	out := make([]MedicationSchedule, 0)
	for _, s := range r.byID {
		if s.OwnerUserID != ownerUserID {
			continue
		}
		if onlyActive && !s.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *testRepo) UpdateSchedule(ctx context.Context, s MedicationSchedule) error {
	current, ok := r.byID[s.ID]
	if !ok || current.OwnerUserID != s.OwnerUserID {
		return ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) SetDoseStatus(ctx context.Context, rec DoseRecord) error {
	r.doses[testKeyOf(rec)] = rec
	return nil
}

func (r *testRepo) ClearDose(ctx context.Context, ownerUserID, scheduleID string, date time.Time, doseNum int) error {
	k := testDoseKey{scheduleID, date.Format(clock.DateLayout), doseNum}
	if rec, ok := r.doses[k]; ok && rec.OwnerUserID == ownerUserID {
		delete(r.doses, k)
	}
	return nil
}

func (r *testRepo) ListDosesByDate(ctx context.Context, ownerUserID string, date time.Time) ([]DoseRecord, error) {
	d := date.Format(clock.DateLayout)
	out := make([]DoseRecord, 0)
	for k, rec := range r.doses {
		if rec.OwnerUserID == ownerUserID && k.date == d {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *testRepo) ListDosesInRange(ctx context.Context, ownerUserID, scheduleID string, from, to time.Time) ([]DoseRecord, error) {
	fromS, toS := from.Format(clock.DateLayout), to.Format(clock.DateLayout)
	out := make([]DoseRecord, 0)
	for k, rec := range r.doses {
		if rec.OwnerUserID == ownerUserID && k.scheduleID == scheduleID && k.date >= fromS && k.date <= toS {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *testRepo) CountTakenSince(ctx context.Context, ownerUserID, scheduleID string, from time.Time) (int, error) {
	fromS := from.Format(clock.DateLayout)
	n := 0
	for k, rec := range r.doses {
		if rec.OwnerUserID == ownerUserID && k.scheduleID == scheduleID &&
			rec.Status == DoseTaken && k.date >= fromS {
			n++
		}
	}
	return n, nil
}

func testKeyOf(rec DoseRecord) testDoseKey {
	return testDoseKey{rec.ScheduleID, rec.ScheduledDate.Format(clock.DateLayout), rec.DoseNum}
}

func (r *testRepo) doseAt(scheduleID string, date time.Time, doseNum int) (DoseRecord, bool) {
	rec, ok := r.doses[testDoseKey{scheduleID, date.Format(clock.DateLayout), doseNum}]
	return rec, ok
}

// -------------------------
// Helpers
// -------------------------

func fixedClock(utc time.Time, offsetMin int) clock.Clock {
	return clock.Fixed(utc, &offsetMin)
}

// baseNow: 2025-06-10 16:00 UTC; con offset 0, hoy (cliente) = 2025-06-10.
var baseNow = time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedSchedule(t *testing.T, repo *testRepo, freq Frequency, start time.Time, createdAt time.Time) MedicationSchedule {
	t.Helper()
	sched := MedicationSchedule{
		ID:          "sched-" + string(freq) + start.Format("0102"),
		OwnerUserID: "user-1",
		Name:        "Ibuprofen",
		Dose:        "200mg",
		Frequency:   freq,
		StartDate:   start,
		CreatedAt:   createdAt,
		Active:      true,
	}
	if err := repo.CreateSchedule(context.Background(), sched); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return sched
}

// -------------------------
// Tests: ciclo de vida
// -------------------------

func TestService_Create_Defaults(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched, err := svc.Create(context.Background(), "user-1", clk, CreateInput{
		Name:      "  Ibuprofen ",
		Frequency: FreqTwiceDaily,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if sched.Name != "Ibuprofen" {
		t.Fatalf("expected trimmed name, got %q", sched.Name)
	}
	if !sched.StartDate.Equal(clk.Today()) {
		t.Fatalf("expected start = today, got %v", sched.StartDate)
	}
	if !sched.Active || sched.Paused {
		t.Fatalf("expected active, not paused")
	}
	if !sched.CreatedAt.Equal(clk.NowUTC()) {
		t.Fatalf("CreatedAt = %v, want %v", sched.CreatedAt, clk.NowUTC())
	}
}

func TestService_Create_Validation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{Name: " ", Frequency: FreqOnceDaily}},
		{"bad frequency", CreateInput{Name: "X", Frequency: Frequency("weekly")}},
		{"future start", CreateInput{Name: "X", Frequency: FreqOnceDaily, StartDate: clk.Today().AddDate(0, 0, 1)}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), "user-1", clk, tc.in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestService_Update_DeactivatedIsConflict(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	if err := svc.Deactivate(context.Background(), "user-1", sched.ID); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}

	_, err := svc.Update(context.Background(), "user-1", sched.ID, clk, CreateInput{
		Name: "Other", Frequency: FreqOnceDaily,
	})
	if !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState, got %v", err)
	}
	if err := svc.Pause(context.Background(), "user-1", sched.ID); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState pausing deactivated, got %v", err)
	}
}

// -------------------------
// Tests: máquina de estados
// -------------------------

func TestService_Take_MarksSlotTaken(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqTwiceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))

	today := clk.Today()
	ref := DoseRef{ScheduleID: sched.ID, Date: today, DoseNum: 1}
	if err := svc.Take(context.Background(), "user-1", clk, ref, nil); err != nil {
		t.Fatalf("Take error: %v", err)
	}

	rec, ok := repo.doseAt(sched.ID, today, 1)
	if !ok {
		t.Fatalf("expected dose record")
	}
	if rec.Status != DoseTaken || rec.TakenAt == nil {
		t.Fatalf("expected taken with timestamp, got %+v", rec)
	}
	if !rec.TakenAt.Equal(clk.NowUTC()) {
		t.Fatalf("TakenAt = %v, want now %v", rec.TakenAt, clk.NowUTC())
	}
}

func TestService_Take_PastDayDefaultsToNoon(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))

	past := date(2025, 6, 8)
	ref := DoseRef{ScheduleID: sched.ID, Date: past, DoseNum: 1}
	if err := svc.Take(context.Background(), "user-1", clk, ref, nil); err != nil {
		t.Fatalf("Take error: %v", err)
	}

	rec, _ := repo.doseAt(sched.ID, past, 1)
	want := past.Add(12 * time.Hour)
	if rec.TakenAt == nil || !rec.TakenAt.Equal(want) {
		t.Fatalf("TakenAt = %v, want noon %v", rec.TakenAt, want)
	}
}

func TestService_Take_ExplicitTimeInFutureRejected(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))

	future := clk.Now().Add(time.Hour)
	ref := DoseRef{ScheduleID: sched.ID, Date: clk.Today(), DoseNum: 1}
	err := svc.Take(context.Background(), "user-1", clk, ref, &future)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Take_CreationDayBeforeCreationRejected(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	// Alta hoy a las 14:00 (cliente); tomar a las 13:00 del mismo día no puede.
	created := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	sched := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 10), created)

	before := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	ref := DoseRef{ScheduleID: sched.ID, Date: clk.Today(), DoseNum: 1}
	if err := svc.Take(context.Background(), "user-1", clk, ref, &before); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	after := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	if err := svc.Take(context.Background(), "user-1", clk, ref, &after); err != nil {
		t.Fatalf("Take after creation error: %v", err)
	}
}

func TestService_DoseGuards(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	// Empezó el 5, dado de alta el 3: las dosis del 3 y 4 tampoco valen.
	sched := seedSchedule(t, repo, FreqTwiceDaily, date(2025, 6, 5), date(2025, 6, 3).Add(9*time.Hour))

	cases := []struct {
		name string
		ref  DoseRef
	}{
		{"future date", DoseRef{ScheduleID: sched.ID, Date: date(2025, 6, 11), DoseNum: 1}},
		{"before start", DoseRef{ScheduleID: sched.ID, Date: date(2025, 6, 4), DoseNum: 1}},
		{"slot zero", DoseRef{ScheduleID: sched.ID, Date: date(2025, 6, 6), DoseNum: 0}},
		{"slot beyond dpd", DoseRef{ScheduleID: sched.ID, Date: date(2025, 6, 6), DoseNum: 3}},
	}
	for _, tc := range cases {
		if err := svc.Take(context.Background(), "user-1", clk, tc.ref, nil); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
		if len(repo.doses) != 0 {
			t.Fatalf("%s: guard violation must not mutate state", tc.name)
		}
	}

	// Fecha antes del alta (aunque después del start configurado hacia atrás).
	backdated := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 1), date(2025, 6, 8).Add(9*time.Hour))
	ref := DoseRef{ScheduleID: backdated.ID, Date: date(2025, 6, 6), DoseNum: 1}
	if err := svc.Take(context.Background(), "user-1", clk, ref, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("before creation: expected ErrInvalidInput, got %v", err)
	}

	// Schedule ajeno: not found.
	other := DoseRef{ScheduleID: sched.ID, Date: date(2025, 6, 6), DoseNum: 1}
	if err := svc.Take(context.Background(), "user-2", clk, other, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
}

func TestService_MissThenTakeOverwrites(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqTwiceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	today := clk.Today()
	ref := DoseRef{ScheduleID: sched.ID, Date: today, DoseNum: 2}

	if err := svc.Miss(context.Background(), "user-1", clk, ref); err != nil {
		t.Fatalf("Miss error: %v", err)
	}
	rec, _ := repo.doseAt(sched.ID, today, 2)
	if rec.Status != DoseMissed || rec.TakenAt != nil {
		t.Fatalf("expected missed without timestamp, got %+v", rec)
	}

	// missed => taken reemplaza el registro (clave natural estable).
	if err := svc.Take(context.Background(), "user-1", clk, ref, nil); err != nil {
		t.Fatalf("Take error: %v", err)
	}
	rec, _ = repo.doseAt(sched.ID, today, 2)
	if rec.Status != DoseTaken || rec.TakenAt == nil {
		t.Fatalf("expected taken after overwrite, got %+v", rec)
	}
	if len(repo.doses) != 1 {
		t.Fatalf("expected single record per natural key, got %d", len(repo.doses))
	}
}

func TestService_Undo_ReturnsSlotToPending(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	today := clk.Today()
	ref := DoseRef{ScheduleID: sched.ID, Date: today, DoseNum: 1}

	_ = svc.Take(context.Background(), "user-1", clk, ref, nil)
	if err := svc.Undo(context.Background(), "user-1", clk, ref); err != nil {
		t.Fatalf("Undo error: %v", err)
	}
	if _, ok := repo.doseAt(sched.ID, today, 1); ok {
		t.Fatalf("expected record removed (pending)")
	}

	// Undo sin registro: no-op.
	if err := svc.Undo(context.Background(), "user-1", clk, ref); err != nil {
		t.Fatalf("idempotent undo error: %v", err)
	}
}

func TestService_PRN_AppendsSequentialDoses(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqAsNeeded, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	today := clk.Today()
	ref := DoseRef{ScheduleID: sched.ID, Date: today} // DoseNum se ignora en prn

	for i := 0; i < 3; i++ {
		if err := svc.Take(context.Background(), "user-1", clk, ref, nil); err != nil {
			t.Fatalf("Take #%d error: %v", i+1, err)
		}
	}
	for dn := 1; dn <= 3; dn++ {
		if _, ok := repo.doseAt(sched.ID, today, dn); !ok {
			t.Fatalf("expected prn dose #%d", dn)
		}
	}

	// Miss no aplica a prn.
	if err := svc.Miss(context.Background(), "user-1", clk, ref); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for prn miss, got %v", err)
	}

	// Undo deshace la más reciente.
	if err := svc.Undo(context.Background(), "user-1", clk, ref); err != nil {
		t.Fatalf("Undo error: %v", err)
	}
	if _, ok := repo.doseAt(sched.ID, today, 3); ok {
		t.Fatalf("expected latest prn dose removed")
	}
	if _, ok := repo.doseAt(sched.ID, today, 2); !ok {
		t.Fatalf("expected earlier prn doses kept")
	}
}

// -------------------------
// Tests: vista diaria
// -------------------------

func TestService_Day_ResolvesSlots(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqTwiceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	today := clk.Today()

	_ = svc.Take(context.Background(), "user-1", clk, DoseRef{ScheduleID: sched.ID, Date: today, DoseNum: 1}, nil)

	view, err := svc.Day(context.Background(), "user-1", clk, today)
	if err != nil {
		t.Fatalf("Day error: %v", err)
	}
	if len(view.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(view.Slots))
	}
	if view.Slots[0].Status != DoseTaken || view.Slots[0].Label != "Morning dose" {
		t.Fatalf("slot 1 = %+v", view.Slots[0])
	}
	if view.Slots[1].Status != DosePending || view.Slots[1].Label != "Evening dose" {
		t.Fatalf("slot 2 = %+v", view.Slots[1])
	}
}

func TestService_Day_SkipsPausedAndNotYetStarted(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	paused := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	p := repo.byID[paused.ID]
	p.Paused = true
	repo.byID[paused.ID] = p

	// Alta el 8: el 5 no existía.
	seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 2), date(2025, 6, 8).Add(9*time.Hour))

	view, err := svc.Day(context.Background(), "user-1", clk, date(2025, 6, 5))
	if err != nil {
		t.Fatalf("Day error: %v", err)
	}
	if len(view.Slots) != 0 || len(view.PRN) != 0 {
		t.Fatalf("expected empty day, got %d slots %d prn", len(view.Slots), len(view.PRN))
	}
}

func TestService_Day_FutureDateRejected(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	if _, err := svc.Day(context.Background(), "user-1", clk, date(2025, 6, 11)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Day_PRNTallyNewestFirst(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqAsNeeded, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	today := clk.Today()
	ref := DoseRef{ScheduleID: sched.ID, Date: today}
	_ = svc.Take(context.Background(), "user-1", clk, ref, nil)
	_ = svc.Take(context.Background(), "user-1", clk, ref, nil)

	view, err := svc.Day(context.Background(), "user-1", clk, today)
	if err != nil {
		t.Fatalf("Day error: %v", err)
	}
	if len(view.PRN) != 1 {
		t.Fatalf("expected 1 prn tally, got %d", len(view.PRN))
	}
	tally := view.PRN[0]
	if tally.Count != 2 || len(tally.Entries) != 2 {
		t.Fatalf("tally = %+v", tally)
	}
	if tally.Entries[0].DoseNum != 2 || tally.Entries[1].DoseNum != 1 {
		t.Fatalf("expected newest first, got %+v", tally.Entries)
	}
}
