package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"symptom-journal/internal/domain/insights"
	"symptom-journal/internal/domain/medications"
	"symptom-journal/internal/platform/clock"
)

// MedicationsRepo implementa medications.Repository y
// insights.MedicationCountSource.
type MedicationsRepo struct {
	mu   sync.RWMutex
	byID map[string]medications.MedicationLogEntry
}

func NewMedicationsRepo() *MedicationsRepo {
	return &MedicationsRepo{byID: make(map[string]medications.MedicationLogEntry)}
}

func (r *MedicationsRepo) Create(ctx context.Context, e medications.MedicationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("medication id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("medication already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *MedicationsRepo) GetByID(ctx context.Context, ownerUserID, id string) (medications.MedicationLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return medications.MedicationLogEntry{}, medications.ErrNotFound
	}
	return e, nil
}

func (r *MedicationsRepo) Update(ctx context.Context, e medications.MedicationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[e.ID]
	if !ok || current.OwnerUserID != e.OwnerUserID {
		return medications.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *MedicationsRepo) Delete(ctx context.Context, ownerUserID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return medications.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MedicationsRepo) ListByOwner(ctx context.Context, ownerUserID string, filter medications.ListFilter) ([]medications.MedicationLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	out := make([]medications.MedicationLogEntry, 0)
	for _, e := range r.byID {
		if e.OwnerUserID != ownerUserID {
			continue
		}
		if filter.From != nil && e.TakenAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.TakenAt.After(*filter.To) {
			continue
		}
		if q := strings.TrimSpace(filter.Query); q != "" {
			hay := strings.ToLower(e.Name + " " + e.Notes)
			if !strings.Contains(hay, strings.ToLower(q)) {
				continue
			}
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TakenAt.After(out[j].TakenAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DailyMedicationCounts agrega usos por (nombre, fecha UTC de storage).
func (r *MedicationsRepo) DailyMedicationCounts(ctx context.Context, ownerUserID string, from, to *time.Time) ([]insights.DailyCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct{ name, date string }
	counts := make(map[key]int)

	for _, e := range r.byID {
		if e.OwnerUserID != ownerUserID {
			continue
		}
		date := e.TakenAt.UTC().Format(clock.DateLayout)
		if from != nil && date < from.Format(clock.DateLayout) {
			continue
		}
		if to != nil && date > to.Format(clock.DateLayout) {
			continue
		}
		counts[key{e.Name, date}]++
	}

	out := make([]insights.DailyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, insights.DailyCount{Name: k.name, Date: k.date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}
