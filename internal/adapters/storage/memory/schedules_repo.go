package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"symptom-journal/internal/domain/schedules"
	"symptom-journal/internal/platform/clock"
)

type doseKey struct {
	scheduleID string
	date       string // YYYY-MM-DD
	doseNum    int
}

// SchedulesRepo implementa schedules.Repository.
type SchedulesRepo struct {
	mu      sync.RWMutex
	byID    map[string]schedules.MedicationSchedule
	doses   map[doseKey]schedules.DoseRecord // a lo sumo uno por clave natural
}

func NewSchedulesRepo() *SchedulesRepo {
	return &SchedulesRepo{
		byID:  make(map[string]schedules.MedicationSchedule),
		doses: make(map[doseKey]schedules.DoseRecord),
	}
}

func (r *SchedulesRepo) CreateSchedule(ctx context.Context, s schedules.MedicationSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		return errors.New("schedule id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("schedule already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *SchedulesRepo) GetSchedule(ctx context.Context, ownerUserID, id string) (schedules.MedicationSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok || s.OwnerUserID != ownerUserID {
		return schedules.MedicationSchedule{}, schedules.ErrNotFound
	}
	return s, nil
}

func (r *SchedulesRepo) ListSchedules(ctx context.Context, ownerUserID string, onlyActive bool) ([]schedules.MedicationSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schedules.MedicationSchedule, 0)
	for _, s := range r.byID {
		if s.OwnerUserID != ownerUserID {
			continue
		}
		if onlyActive && !s.Active {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *SchedulesRepo) UpdateSchedule(ctx context.Context, s schedules.MedicationSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[s.ID]
	if !ok || current.OwnerUserID != s.OwnerUserID {
		return schedules.ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *SchedulesRepo) SetDoseStatus(ctx context.Context, rec schedules.DoseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reemplazo atómico: el map garantiza un registro por clave natural.
	r.doses[keyOf(rec)] = rec
	return nil
}

func (r *SchedulesRepo) ClearDose(ctx context.Context, ownerUserID, scheduleID string, date time.Time, doseNum int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := doseKey{scheduleID, date.Format(clock.DateLayout), doseNum}
	if rec, ok := r.doses[k]; ok && rec.OwnerUserID == ownerUserID {
		delete(r.doses, k)
	}
	return nil
}

func (r *SchedulesRepo) ListDosesByDate(ctx context.Context, ownerUserID string, date time.Time) ([]schedules.DoseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := date.Format(clock.DateLayout)
	out := make([]schedules.DoseRecord, 0)
	for k, rec := range r.doses {
		if rec.OwnerUserID == ownerUserID && k.date == d {
			out = append(out, rec)
		}
	}
	sortDoses(out)
	return out, nil
}

func (r *SchedulesRepo) ListDosesInRange(ctx context.Context, ownerUserID, scheduleID string, from, to time.Time) ([]schedules.DoseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fromS, toS := from.Format(clock.DateLayout), to.Format(clock.DateLayout)
	out := make([]schedules.DoseRecord, 0)
	for k, rec := range r.doses {
		if rec.OwnerUserID != ownerUserID || k.scheduleID != scheduleID {
			continue
		}
		if k.date < fromS || k.date > toS {
			continue
		}
		out = append(out, rec)
	}
	sortDoses(out)
	return out, nil
}

func (r *SchedulesRepo) CountTakenSince(ctx context.Context, ownerUserID, scheduleID string, from time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fromS := from.Format(clock.DateLayout)
	n := 0
	for k, rec := range r.doses {
		if rec.OwnerUserID == ownerUserID && k.scheduleID == scheduleID &&
			rec.Status == schedules.DoseTaken && k.date >= fromS {
			n++
		}
	}
	return n, nil
}

func keyOf(rec schedules.DoseRecord) doseKey {
	return doseKey{rec.ScheduleID, rec.ScheduledDate.Format(clock.DateLayout), rec.DoseNum}
}

func sortDoses(out []schedules.DoseRecord) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		if out[i].ScheduleID != out[j].ScheduleID {
			return out[i].ScheduleID < out[j].ScheduleID
		}
		return out[i].DoseNum < out[j].DoseNum
	})
}
