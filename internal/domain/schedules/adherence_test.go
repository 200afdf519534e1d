package schedules

import (
	"context"
	"testing"
	"time"
)

func seedTaken(repo *testRepo, sched MedicationSchedule, day time.Time, doseNum int) {
	at := day.Add(9 * time.Hour)
	repo.doses[testDoseKey{sched.ID, day.Format("2006-01-02"), doseNum}] = DoseRecord{
		ScheduleID:    sched.ID,
		OwnerUserID:   sched.OwnerUserID,
		ScheduledDate: day,
		DoseNum:       doseNum,
		TakenAt:       &at,
		Status:        DoseTaken,
	}
}

func TestAdherence_FullWindowAtFiftyPercent(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0) // hoy = 2025-06-10, ventana = 06-04..06-10

	sched := seedSchedule(t, repo, FreqTwiceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))

	// 7 tomas dentro de la ventana: una por día.
	for d := 4; d <= 10; d++ {
		seedTaken(repo, sched, date(2025, 6, d), 1)
	}
	// Tomas fuera de la ventana no cuentan.
	seedTaken(repo, sched, date(2025, 6, 2), 1)

	adh, err := svc.Adherence(context.Background(), "user-1", sched.ID, clk)
	if err != nil {
		t.Fatalf("Adherence error: %v", err)
	}
	if adh.Expected == nil || *adh.Expected != 14 {
		t.Fatalf("Expected = %v, want 14", adh.Expected)
	}
	if adh.Taken != 7 {
		t.Fatalf("Taken = %d, want 7", adh.Taken)
	}
	if adh.Percentage == nil || *adh.Percentage != 50.0 {
		t.Fatalf("Percentage = %v, want 50.0", adh.Percentage)
	}
	if lvl := LevelFor(adh); lvl != LevelMid {
		t.Fatalf("Level = %s, want mid", lvl)
	}
}

func TestAdherence_WindowClippedToStartDate(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	// Empezó el 8: ventana efectiva 06-08..06-10 = 3 días.
	sched := seedSchedule(t, repo, FreqThreeDaily, date(2025, 6, 8), date(2025, 6, 8).Add(8*time.Hour))
	seedTaken(repo, sched, date(2025, 6, 8), 1)
	seedTaken(repo, sched, date(2025, 6, 8), 2)
	seedTaken(repo, sched, date(2025, 6, 9), 1)

	adh, err := svc.Adherence(context.Background(), "user-1", sched.ID, clk)
	if err != nil {
		t.Fatalf("Adherence error: %v", err)
	}
	if adh.Expected == nil || *adh.Expected != 9 {
		t.Fatalf("Expected = %v, want 9 (3 días x 3 dosis)", adh.Expected)
	}
	if adh.Taken != 3 {
		t.Fatalf("Taken = %d, want 3", adh.Taken)
	}
	// 3/9 = 33.3
	if adh.Percentage == nil || *adh.Percentage != 33.3 {
		t.Fatalf("Percentage = %v, want 33.3", adh.Percentage)
	}
	if lvl := LevelFor(adh); lvl != LevelLow {
		t.Fatalf("Level = %s, want low", lvl)
	}
}

func TestAdherence_PRNReportsCountOnly(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	sched := seedSchedule(t, repo, FreqAsNeeded, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	seedTaken(repo, sched, date(2025, 6, 9), 1)
	seedTaken(repo, sched, date(2025, 6, 9), 2)
	seedTaken(repo, sched, date(2025, 6, 2), 1) // fuera de ventana

	adh, err := svc.Adherence(context.Background(), "user-1", sched.ID, clk)
	if err != nil {
		t.Fatalf("Adherence error: %v", err)
	}
	if adh.Expected != nil {
		t.Fatalf("prn: Expected must be nil, got %v", *adh.Expected)
	}
	if adh.Taken != 2 {
		t.Fatalf("Taken = %d, want 2", adh.Taken)
	}
	if adh.Percentage != nil {
		t.Fatalf("prn: Percentage must be nil")
	}
	if lvl := LevelFor(adh); lvl != LevelAsNeeded {
		t.Fatalf("Level = %s, want as_needed", lvl)
	}
}

func TestAdherence_StartAfterTodayHasNoData(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	// Data sucia: start futuro (no creable vía service). Debe dar no_data,
	// no una ventana invertida con expected negativo.
	sched := seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 12), date(2025, 6, 10).Add(8*time.Hour))

	adh, err := svc.Adherence(context.Background(), "user-1", sched.ID, clk)
	if err != nil {
		t.Fatalf("Adherence error: %v", err)
	}
	if adh.Expected == nil || *adh.Expected != 0 {
		t.Fatalf("Expected = %v, want 0", adh.Expected)
	}
	if lvl := LevelFor(adh); lvl != LevelNoData {
		t.Fatalf("Level = %s, want no_data", lvl)
	}
}

func TestAdherenceAll_OnlyActiveSchedules(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	clk := fixedClock(baseNow, 0)

	seedSchedule(t, repo, FreqOnceDaily, date(2025, 6, 1), date(2025, 6, 1).Add(8*time.Hour))
	dead := seedSchedule(t, repo, FreqTwiceDaily, date(2025, 6, 2), date(2025, 6, 2).Add(8*time.Hour))
	d := repo.byID[dead.ID]
	d.Active = false
	repo.byID[dead.ID] = d

	items, err := svc.AdherenceAll(context.Background(), "user-1", clk)
	if err != nil {
		t.Fatalf("AdherenceAll error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 active schedule, got %d", len(items))
	}
	if items[0].Level == "" {
		t.Fatalf("expected level set")
	}
}

func TestLevelFor_Thresholds(t *testing.T) {
	pct := func(v float64) Adherence {
		e := 10
		return Adherence{Expected: &e, Taken: 0, Percentage: &v}
	}

	cases := []struct {
		adh  Adherence
		want Level
	}{
		{pct(100), LevelGood},
		{pct(80), LevelGood},
		{pct(79.9), LevelMid},
		{pct(50), LevelMid},
		{pct(49.9), LevelLow},
		{pct(0), LevelLow},
		{Adherence{}, LevelAsNeeded},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.adh); got != tc.want {
			t.Fatalf("LevelFor(%+v) = %s, want %s", tc.adh, got, tc.want)
		}
	}
}
