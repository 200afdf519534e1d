package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"symptom-journal/internal/domain/insights"
	"symptom-journal/internal/domain/symptoms"
	"symptom-journal/internal/platform/clock"
)

// SymptomsRepo implementa symptoms.Repository y, para el módulo de
// correlaciones, insights.SeveritySource.
type SymptomsRepo struct {
	mu   sync.RWMutex
	byID map[string]symptoms.SymptomEvent
}

func NewSymptomsRepo() *SymptomsRepo {
	return &SymptomsRepo{byID: make(map[string]symptoms.SymptomEvent)}
}

func (r *SymptomsRepo) Create(ctx context.Context, e symptoms.SymptomEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("symptom id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("symptom already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *SymptomsRepo) GetByID(ctx context.Context, ownerUserID, id string) (symptoms.SymptomEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		// "no existe" y "no es tuyo" se reportan igual para no filtrar
		// existencia entre owners.
		return symptoms.SymptomEvent{}, symptoms.ErrNotFound
	}
	return e, nil
}

func (r *SymptomsRepo) Update(ctx context.Context, e symptoms.SymptomEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[e.ID]
	if !ok || current.OwnerUserID != e.OwnerUserID {
		return symptoms.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *SymptomsRepo) ListByOwner(ctx context.Context, ownerUserID string, filter symptoms.ListFilter) ([]symptoms.SymptomEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	out := make([]symptoms.SymptomEvent, 0)
	for _, e := range r.byID {
		if e.OwnerUserID != ownerUserID || e.DeletedAt != nil {
			continue
		}
		if filter.From != nil && e.StartAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.StartAt.After(*filter.To) {
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

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartAt.After(out[j].StartAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SymptomsRepo) MarkDeleted(ctx context.Context, ownerUserID, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return symptoms.ErrNotFound
	}
	if e.DeletedAt != nil {
		return fmt.Errorf("%w: already deleted", symptoms.ErrBadState)
	}
	e.DeletedAt = &at
	r.byID[id] = e
	return nil
}

func (r *SymptomsRepo) ClearDeleted(ctx context.Context, ownerUserID, id string, notBefore time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.OwnerUserID != ownerUserID {
		return symptoms.ErrNotFound
	}
	if e.DeletedAt == nil {
		return fmt.Errorf("%w: event is not deleted", symptoms.ErrBadState)
	}
	if e.DeletedAt.Before(notBefore) {
		return symptoms.ErrUndoExpired
	}
	e.DeletedAt = nil
	r.byID[id] = e
	return nil
}

// DailySeverityAverages agrega por (nombre, fecha UTC de storage) y
// promedia las severidades del día. Excluye borrados.
func (r *SymptomsRepo) DailySeverityAverages(ctx context.Context, ownerUserID string, from, to *time.Time) ([]insights.DailySeverity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct{ name, date string }
	sums := make(map[key]float64)
	counts := make(map[key]int)

	for _, e := range r.byID {
		if e.OwnerUserID != ownerUserID || e.DeletedAt != nil {
			continue
		}
		date := e.StartAt.UTC().Format(clock.DateLayout)
		if from != nil && date < from.Format(clock.DateLayout) {
			continue
		}
		if to != nil && date > to.Format(clock.DateLayout) {
			continue
		}
		k := key{e.Name, date}
		sums[k] += float64(e.Severity)
		counts[k]++
	}

	out := make([]insights.DailySeverity, 0, len(sums))
	for k, sum := range sums {
		out = append(out, insights.DailySeverity{
			Name:        k.name,
			Date:        k.date,
			AvgSeverity: sum / float64(counts[k]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}
