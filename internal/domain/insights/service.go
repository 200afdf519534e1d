package insights

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

// SeveritySource entrega promedios diarios de severidad por síntoma
// (excluyendo eventos borrados). Interfaz propia para no acoplar este
// módulo a los repos de symptoms/medications (evita ciclos de imports).
type SeveritySource interface {
	DailySeverityAverages(ctx context.Context, ownerUserID string, from, to *time.Time) ([]DailySeverity, error)
}

// MedicationCountSource entrega conteos diarios de usos por medicación.
type MedicationCountSource interface {
	DailyMedicationCounts(ctx context.Context, ownerUserID string, from, to *time.Time) ([]DailyCount, error)
}

// Service recomputa las matrices desde cero en cada query: funciones
// puras del log de eventos, sin estado entre llamadas. Aceptable para
// el volumen de un owner (log de meses); con historiales grandes la
// agregación diaria sería el intermedio cacheable.
type Service struct {
	severities SeveritySource
	medCounts  MedicationCountSource
}

func NewService(severities SeveritySource, medCounts MedicationCountSource) *Service {
	return &Service{severities: severities, medCounts: medCounts}
}

func (s *Service) SymptomCorrelations(ctx context.Context, ownerUserID string, from, to *time.Time) (SymptomMatrix, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return SymptomMatrix{}, ErrInvalidInput
	}
	rows, err := s.severities.DailySeverityAverages(ctx, ownerUserID, from, to)
	if err != nil {
		return SymptomMatrix{}, err
	}
	return ComputeSymptomMatrix(rows), nil
}

func (s *Service) MedSymptomCorrelations(ctx context.Context, ownerUserID string, from, to *time.Time) (MedSymptomMatrix, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return MedSymptomMatrix{}, ErrInvalidInput
	}
	symps, err := s.severities.DailySeverityAverages(ctx, ownerUserID, from, to)
	if err != nil {
		return MedSymptomMatrix{}, err
	}
	meds, err := s.medCounts.DailyMedicationCounts(ctx, ownerUserID, from, to)
	if err != nil {
		return MedSymptomMatrix{}, err
	}
	return ComputeMedSymptomMatrix(meds, symps), nil
}
