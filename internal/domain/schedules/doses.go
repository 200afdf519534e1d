package schedules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"symptom-journal/internal/platform/clock"
)

// DaySlot es un slot esperado de un schedule dosificado, resuelto a su
// estado actual.
type DaySlot struct {
	ScheduleID string
	Name       string
	Dose       string

	DoseNum int
	Label   string

	Status  DoseStatus
	TakenAt *time.Time // UTC, solo cuando Status es taken
}

// PRNEntry es una toma ad hoc de un schedule as-needed.
type PRNEntry struct {
	DoseNum int
	TakenAt time.Time // UTC
}

// PRNTally agrupa las tomas del día de un schedule as-needed.
type PRNTally struct {
	ScheduleID string
	Name       string
	Dose       string

	Count   int
	Entries []PRNEntry // más reciente primero
}

// DayView enumera los slots esperados de una fecha para todos los
// schedules activos y no pausados del owner.
type DayView struct {
	Date  time.Time
	Slots []DaySlot
	PRN   []PRNTally
}

// Day resuelve la vista de una fecha. Fechas futuras se rechazan.
func (s *Service) Day(ctx context.Context, ownerUserID string, clk clock.Clock, date time.Time) (DayView, error) {
	day := clock.DateOf(date)
	if day.After(clk.Today()) {
		return DayView{}, fmt.Errorf("%w: date cannot be in the future", ErrInvalidInput)
	}

	scheds, err := s.repo.ListSchedules(ctx, ownerUserID, true)
	if err != nil {
		return DayView{}, err
	}
	records, err := s.repo.ListDosesByDate(ctx, ownerUserID, day)
	if err != nil {
		return DayView{}, err
	}

	type doseKey struct {
		scheduleID string
		doseNum    int
	}
	byKey := make(map[doseKey]DoseRecord, len(records))
	for _, rec := range records {
		byKey[doseKey{rec.ScheduleID, rec.DoseNum}] = rec
	}

	view := DayView{Date: day, Slots: make([]DaySlot, 0), PRN: make([]PRNTally, 0)}

	for _, sched := range scheds {
		if sched.Paused {
			continue
		}
		// Schedules que aún no existían o no habían empezado en esa fecha
		// no aportan slots.
		if day.Before(sched.StartDate) {
			continue
		}
		if day.Before(clock.DateOf(clk.FromStorage(sched.CreatedAt))) {
			continue
		}

		dpd := sched.Frequency.DosesPerDay()
		if dpd == 0 {
			tally := PRNTally{ScheduleID: sched.ID, Name: sched.Name, Dose: sched.Dose, Entries: make([]PRNEntry, 0)}
			for _, rec := range records {
				if rec.ScheduleID != sched.ID || rec.Status != DoseTaken || rec.TakenAt == nil {
					continue
				}
				tally.Entries = append(tally.Entries, PRNEntry{DoseNum: rec.DoseNum, TakenAt: *rec.TakenAt})
			}
			sort.Slice(tally.Entries, func(i, j int) bool {
				return tally.Entries[i].DoseNum > tally.Entries[j].DoseNum
			})
			tally.Count = len(tally.Entries)
			view.PRN = append(view.PRN, tally)
			continue
		}

		for dn := 1; dn <= dpd; dn++ {
			slot := DaySlot{
				ScheduleID: sched.ID,
				Name:       sched.Name,
				Dose:       sched.Dose,
				DoseNum:    dn,
				Label:      SlotLabel(dn, dpd),
				Status:     DosePending,
			}
			if rec, ok := byKey[doseKey{sched.ID, dn}]; ok {
				slot.Status = rec.Status
				slot.TakenAt = rec.TakenAt
			}
			view.Slots = append(view.Slots, slot)
		}
	}

	return view, nil
}
