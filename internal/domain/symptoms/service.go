package symptoms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"symptom-journal/internal/platform/clock"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
	ErrUndoExpired  = errors.New("undo window expired")
)

// UndoWindow acota cuánto tiempo después de borrar se puede restaurar.
// Constante fija, no configurable.
const UndoWindow = 20 * time.Second

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// LogInput trae timestamps en wall-clock del cliente; el service los
// normaliza a UTC con el Clock del request.
type LogInput struct {
	Name     string
	Severity int
	Notes    string
	StartAt  time.Time  // cero => ahora
	EndAt    *time.Time // opcional
}

func (s *Service) Log(ctx context.Context, ownerUserID string, clk clock.Clock, in LogInput) (SymptomEvent, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return SymptomEvent{}, ErrInvalidInput
	}

	e, err := buildEvent(clk, in)
	if err != nil {
		return SymptomEvent{}, err
	}
	e.ID = uuid.NewString()
	e.OwnerUserID = ownerUserID

	if err := s.repo.Create(ctx, e); err != nil {
		return SymptomEvent{}, err
	}
	return e, nil
}

type UpdateInput = LogInput

func (s *Service) Update(ctx context.Context, ownerUserID, id string, clk clock.Clock, in UpdateInput) (SymptomEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SymptomEvent{}, ErrInvalidInput
	}

	current, err := s.repo.GetByID(ctx, ownerUserID, id)
	if err != nil {
		return SymptomEvent{}, err
	}
	if current.DeletedAt != nil {
		// Un evento borrado no se edita; primero restore.
		return SymptomEvent{}, ErrNotFound
	}

	e, err := buildEvent(clk, in)
	if err != nil {
		return SymptomEvent{}, err
	}
	e.ID = current.ID
	e.OwnerUserID = current.OwnerUserID

	if err := s.repo.Update(ctx, e); err != nil {
		return SymptomEvent{}, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, ownerUserID, id string) (SymptomEvent, error) {
	e, err := s.repo.GetByID(ctx, ownerUserID, strings.TrimSpace(id))
	if err != nil {
		return SymptomEvent{}, err
	}
	if e.DeletedAt != nil {
		return SymptomEvent{}, ErrNotFound
	}
	return e, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]SymptomEvent, error) {
	return s.repo.ListByOwner(ctx, ownerUserID, filter)
}

// SoftDelete marca el evento como borrado sin removerlo físicamente.
// Falla si ya estaba borrado o no existe.
func (s *Service) SoftDelete(ctx context.Context, ownerUserID, id string, clk clock.Clock) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.MarkDeleted(ctx, ownerUserID, id, clk.NowUTC())
}

// Restore limpia el soft delete solo dentro de UndoWindow.
func (s *Service) Restore(ctx context.Context, ownerUserID, id string, clk clock.Clock) (SymptomEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SymptomEvent{}, ErrInvalidInput
	}

	e, err := s.repo.GetByID(ctx, ownerUserID, id)
	if err != nil {
		return SymptomEvent{}, err
	}
	if e.DeletedAt == nil {
		return SymptomEvent{}, fmt.Errorf("%w: event is not deleted", ErrBadState)
	}

	now := clk.NowUTC()
	if now.Sub(*e.DeletedAt) > UndoWindow {
		return SymptomEvent{}, ErrUndoExpired
	}

	// La condición notBefore se re-chequea en el store para que dos
	// requests concurrentes no dejen estados contradictorios.
	if err := s.repo.ClearDeleted(ctx, ownerUserID, id, now.Add(-UndoWindow)); err != nil {
		return SymptomEvent{}, err
	}

	e.DeletedAt = nil
	return e, nil
}

func buildEvent(clk clock.Clock, in LogInput) (SymptomEvent, error) {
	if strings.TrimSpace(in.Name) == "" {
		return SymptomEvent{}, fmt.Errorf("%w: symptom name is required", ErrInvalidInput)
	}
	if in.Severity < SeverityMin || in.Severity > SeverityMax {
		return SymptomEvent{}, fmt.Errorf("%w: severity must be between %d and %d", ErrInvalidInput, SeverityMin, SeverityMax)
	}

	nowLocal := clk.Now()

	startLocal := in.StartAt
	if startLocal.IsZero() {
		startLocal = nowLocal
	}
	if startLocal.After(nowLocal) {
		return SymptomEvent{}, fmt.Errorf("%w: date cannot be in the future", ErrInvalidInput)
	}

	e := SymptomEvent{
		Name:     strings.TrimSpace(in.Name),
		Severity: in.Severity,
		Notes:    strings.TrimSpace(in.Notes),
		StartAt:  clk.ToStorage(startLocal),
	}

	if in.EndAt != nil {
		if !in.EndAt.After(startLocal) {
			return SymptomEvent{}, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
		}
		end := clk.ToStorage(*in.EndAt)
		e.EndAt = &end
	}

	return e, nil
}
