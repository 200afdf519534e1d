package medications

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
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type LogInput struct {
	Name    string
	Dose    string
	Notes   string
	TakenAt time.Time // wall-clock del cliente; cero => ahora
}

func (s *Service) Log(ctx context.Context, ownerUserID string, clk clock.Clock, in LogInput) (MedicationLogEntry, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return MedicationLogEntry{}, ErrInvalidInput
	}

	e, err := buildEntry(clk, in)
	if err != nil {
		return MedicationLogEntry{}, err
	}
	e.ID = uuid.NewString()
	e.OwnerUserID = ownerUserID

	if err := s.repo.Create(ctx, e); err != nil {
		return MedicationLogEntry{}, err
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, ownerUserID, id string, clk clock.Clock, in LogInput) (MedicationLogEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return MedicationLogEntry{}, ErrInvalidInput
	}

	current, err := s.repo.GetByID(ctx, ownerUserID, id)
	if err != nil {
		return MedicationLogEntry{}, err
	}

	e, err := buildEntry(clk, in)
	if err != nil {
		return MedicationLogEntry{}, err
	}
	e.ID = current.ID
	e.OwnerUserID = current.OwnerUserID

	if err := s.repo.Update(ctx, e); err != nil {
		return MedicationLogEntry{}, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, ownerUserID, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]MedicationLogEntry, error) {
	return s.repo.ListByOwner(ctx, ownerUserID, filter)
}

func buildEntry(clk clock.Clock, in LogInput) (MedicationLogEntry, error) {
	if strings.TrimSpace(in.Name) == "" {
		return MedicationLogEntry{}, fmt.Errorf("%w: medication name is required", ErrInvalidInput)
	}

	nowLocal := clk.Now()
	takenLocal := in.TakenAt
	if takenLocal.IsZero() {
		takenLocal = nowLocal
	}
	if takenLocal.After(nowLocal) {
		return MedicationLogEntry{}, fmt.Errorf("%w: date cannot be in the future", ErrInvalidInput)
	}

	return MedicationLogEntry{
		Name:    strings.TrimSpace(in.Name),
		Dose:    strings.TrimSpace(in.Dose),
		Notes:   strings.TrimSpace(in.Notes),
		TakenAt: clk.ToStorage(takenLocal),
	}, nil
}
