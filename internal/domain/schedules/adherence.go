package schedules

import (
	"context"
	"math"
	"strings"
	"time"

	"symptom-journal/internal/platform/clock"
)

// Adherence es el ratio de cumplimiento de la ventana móvil de 7 días.
// Expected es nil para schedules as-needed (no hay denominador);
// Percentage es nil cuando Expected es nil o 0.
type Adherence struct {
	Expected   *int
	Taken      int
	Percentage *float64
}

// Level clasifica la adherencia para presentación. Umbrales fijos.
type Level string

const (
	LevelGood     Level = "good"      // >= 80%
	LevelMid      Level = "mid"       // 50..79%
	LevelLow      Level = "low"       // < 50%
	LevelAsNeeded Level = "as_needed" // prn: solo conteo
	LevelNoData   Level = "no_data"   // ventana vacía
)

const (
	adherenceWindowDays = 7
	goodThresholdPct    = 80
	midThresholdPct     = 50
)

// LevelFor clasifica un resultado de adherencia.
func LevelFor(a Adherence) Level {
	if a.Expected == nil {
		return LevelAsNeeded
	}
	if *a.Expected == 0 || a.Percentage == nil {
		return LevelNoData
	}
	switch {
	case *a.Percentage >= goodThresholdPct:
		return LevelGood
	case *a.Percentage >= midThresholdPct:
		return LevelMid
	default:
		return LevelLow
	}
}

// Adherence calcula la ventana móvil de un schedule al día de hoy
// (calendario del cliente).
func (s *Service) Adherence(ctx context.Context, ownerUserID, scheduleID string, clk clock.Clock) (Adherence, error) {
	sched, err := s.repo.GetSchedule(ctx, ownerUserID, strings.TrimSpace(scheduleID))
	if err != nil {
		return Adherence{}, err
	}
	return s.adherenceFor(ctx, sched, clk.Today())
}

// ScheduleAdherence junta schedule + métrica para el reporte agregado.
type ScheduleAdherence struct {
	Schedule  MedicationSchedule
	Adherence Adherence
	Level     Level
}

// AdherenceAll calcula la adherencia de todos los schedules activos.
func (s *Service) AdherenceAll(ctx context.Context, ownerUserID string, clk clock.Clock) ([]ScheduleAdherence, error) {
	scheds, err := s.repo.ListSchedules(ctx, ownerUserID, true)
	if err != nil {
		return nil, err
	}

	today := clk.Today()
	out := make([]ScheduleAdherence, 0, len(scheds))
	for _, sched := range scheds {
		adh, err := s.adherenceFor(ctx, sched, today)
		if err != nil {
			return nil, err
		}
		out = append(out, ScheduleAdherence{Schedule: sched, Adherence: adh, Level: LevelFor(adh)})
	}
	return out, nil
}

func (s *Service) adherenceFor(ctx context.Context, sched MedicationSchedule, asOf time.Time) (Adherence, error) {
	asOf = clock.DateOf(asOf)
	windowStart := asOf.AddDate(0, 0, -(adherenceWindowDays - 1))

	dpd := sched.Frequency.DosesPerDay()
	if dpd == 0 {
		// prn: solo tomas de los últimos 7 días, sin porcentaje.
		taken, err := s.repo.CountTakenSince(ctx, sched.OwnerUserID, sched.ID, windowStart)
		if err != nil {
			return Adherence{}, err
		}
		return Adherence{Taken: taken}, nil
	}

	if sched.StartDate.After(windowStart) {
		windowStart = sched.StartDate
	}
	if windowStart.After(asOf) {
		// Ventana invertida (start posterior a hoy): sin datos.
		zero := 0
		return Adherence{Expected: &zero}, nil
	}

	daysInWindow := int(asOf.Sub(windowStart).Hours()/24) + 1
	expected := daysInWindow * dpd

	records, err := s.repo.ListDosesInRange(ctx, sched.OwnerUserID, sched.ID, windowStart, asOf)
	if err != nil {
		return Adherence{}, err
	}
	taken := 0
	for _, rec := range records {
		if rec.Status == DoseTaken {
			taken++
		}
	}

	adh := Adherence{Expected: &expected, Taken: taken}
	if expected > 0 {
		pct := round1(float64(taken) / float64(expected) * 100)
		adh.Percentage = &pct
	}
	return adh, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
