package schedules

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
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Name      string
	Dose      string
	Notes     string
	Frequency Frequency
	StartDate time.Time // fecha calendario; cero => hoy (cliente)
}

func (s *Service) Create(ctx context.Context, ownerUserID string, clk clock.Clock, in CreateInput) (MedicationSchedule, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return MedicationSchedule{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return MedicationSchedule{}, fmt.Errorf("%w: medication name is required", ErrInvalidInput)
	}
	if !in.Frequency.Valid() {
		return MedicationSchedule{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, in.Frequency)
	}

	today := clk.Today()
	start := clock.DateOf(in.StartDate)
	if in.StartDate.IsZero() {
		start = today
	}
	if start.After(today) {
		return MedicationSchedule{}, fmt.Errorf("%w: start date cannot be in the future", ErrInvalidInput)
	}

	sched := MedicationSchedule{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Dose:        strings.TrimSpace(in.Dose),
		Notes:       strings.TrimSpace(in.Notes),
		Frequency:   in.Frequency,
		StartDate:   start,
		CreatedAt:   clk.NowUTC(),
		Active:      true,
	}

	if err := s.repo.CreateSchedule(ctx, sched); err != nil {
		return MedicationSchedule{}, err
	}
	return sched, nil
}

func (s *Service) Update(ctx context.Context, ownerUserID, id string, clk clock.Clock, in CreateInput) (MedicationSchedule, error) {
	sched, err := s.getActive(ctx, ownerUserID, id)
	if err != nil {
		return MedicationSchedule{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return MedicationSchedule{}, fmt.Errorf("%w: medication name is required", ErrInvalidInput)
	}
	if !in.Frequency.Valid() {
		return MedicationSchedule{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, in.Frequency)
	}

	start := clock.DateOf(in.StartDate)
	if in.StartDate.IsZero() {
		start = sched.StartDate
	}
	if start.After(clk.Today()) {
		return MedicationSchedule{}, fmt.Errorf("%w: start date cannot be in the future", ErrInvalidInput)
	}

	sched.Name = strings.TrimSpace(in.Name)
	sched.Dose = strings.TrimSpace(in.Dose)
	sched.Notes = strings.TrimSpace(in.Notes)
	sched.Frequency = in.Frequency
	sched.StartDate = start

	if err := s.repo.UpdateSchedule(ctx, sched); err != nil {
		return MedicationSchedule{}, err
	}
	return sched, nil
}

// Deactivate da de baja el schedule (soft, conserva historial de dosis).
func (s *Service) Deactivate(ctx context.Context, ownerUserID, id string) error {
	sched, err := s.repo.GetSchedule(ctx, ownerUserID, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	sched.Active = false
	return s.repo.UpdateSchedule(ctx, sched)
}

func (s *Service) Pause(ctx context.Context, ownerUserID, id string) error {
	return s.setPaused(ctx, ownerUserID, id, true)
}

func (s *Service) Resume(ctx context.Context, ownerUserID, id string) error {
	return s.setPaused(ctx, ownerUserID, id, false)
}

func (s *Service) setPaused(ctx context.Context, ownerUserID, id string, paused bool) error {
	sched, err := s.getActive(ctx, ownerUserID, id)
	if err != nil {
		return err
	}
	sched.Paused = paused
	return s.repo.UpdateSchedule(ctx, sched)
}

func (s *Service) List(ctx context.Context, ownerUserID string, onlyActive bool) ([]MedicationSchedule, error) {
	return s.repo.ListSchedules(ctx, ownerUserID, onlyActive)
}

func (s *Service) getActive(ctx context.Context, ownerUserID, id string) (MedicationSchedule, error) {
	sched, err := s.repo.GetSchedule(ctx, ownerUserID, strings.TrimSpace(id))
	if err != nil {
		return MedicationSchedule{}, err
	}
	if !sched.Active {
		return MedicationSchedule{}, fmt.Errorf("%w: schedule is deactivated", ErrBadState)
	}
	return sched, nil
}

// ── Máquina de estados de dosis ──────────────────────────────────────────────
//
// Estados por (schedule, fecha, slot): pending (sin registro), taken, missed.
// Transiciones idempotentes; toda violación de guardas rechaza sin mutar.

type DoseRef struct {
	ScheduleID string
	Date       time.Time // fecha de calendario del slot
	DoseNum    int
}

// Take marca el slot como tomado. takenLocal opcional (wall-clock del
// cliente); nil => ahora, o mediodía si la fecha es pasada.
func (s *Service) Take(ctx context.Context, ownerUserID string, clk clock.Clock, ref DoseRef, takenLocal *time.Time) error {
	sched, date, err := s.checkDoseGuards(ctx, ownerUserID, clk, ref)
	if err != nil {
		return err
	}

	nowLocal := clk.Now()
	var taken time.Time
	if takenLocal != nil {
		taken = *takenLocal
		if taken.After(nowLocal) {
			return fmt.Errorf("%w: dose time cannot be in the future", ErrInvalidInput)
		}
	} else if date.Before(clk.Today()) {
		// Backfill de un día pasado sin hora explícita: mediodía.
		taken = date.Add(12 * time.Hour)
	} else {
		taken = nowLocal
	}

	// En el día de alta, la toma no puede preceder al alta del schedule.
	createdLocal := clk.FromStorage(sched.CreatedAt)
	if date.Equal(clock.DateOf(createdLocal)) && taken.Before(createdLocal) {
		return fmt.Errorf("%w: dose time precedes schedule creation", ErrInvalidInput)
	}

	doseNum := ref.DoseNum
	if sched.Frequency.DosesPerDay() == 0 {
		// prn: siempre appende el siguiente slot secuencial.
		n, err := s.takenCountForDate(ctx, ownerUserID, sched.ID, date)
		if err != nil {
			return err
		}
		doseNum = n + 1
	}

	takenAt := clk.ToStorage(taken)
	return s.repo.SetDoseStatus(ctx, DoseRecord{
		ScheduleID:    sched.ID,
		OwnerUserID:   ownerUserID,
		ScheduledDate: date,
		DoseNum:       doseNum,
		TakenAt:       &takenAt,
		Status:        DoseTaken,
	})
}

// Miss marca el slot como salteado (limpia taken-at).
func (s *Service) Miss(ctx context.Context, ownerUserID string, clk clock.Clock, ref DoseRef) error {
	sched, date, err := s.checkDoseGuards(ctx, ownerUserID, clk, ref)
	if err != nil {
		return err
	}
	if sched.Frequency.DosesPerDay() == 0 {
		return fmt.Errorf("%w: as-needed schedules have no missed doses", ErrInvalidInput)
	}

	return s.repo.SetDoseStatus(ctx, DoseRecord{
		ScheduleID:    sched.ID,
		OwnerUserID:   ownerUserID,
		ScheduledDate: date,
		DoseNum:       ref.DoseNum,
		Status:        DoseMissed,
	})
}

// Undo vuelve el slot a pending (borra el registro). Para prn deshace
// la entrada más reciente del día.
func (s *Service) Undo(ctx context.Context, ownerUserID string, clk clock.Clock, ref DoseRef) error {
	sched, date, err := s.checkDoseGuards(ctx, ownerUserID, clk, ref)
	if err != nil {
		return err
	}

	doseNum := ref.DoseNum
	if sched.Frequency.DosesPerDay() == 0 {
		records, err := s.repo.ListDosesInRange(ctx, ownerUserID, sched.ID, date, date)
		if err != nil {
			return err
		}
		doseNum = 0
		for _, rec := range records {
			if rec.DoseNum > doseNum {
				doseNum = rec.DoseNum
			}
		}
		if doseNum == 0 {
			return nil // nada que deshacer
		}
	}

	return s.repo.ClearDose(ctx, ownerUserID, sched.ID, date, doseNum)
}

// checkDoseGuards aplica las guardas comunes a take/miss/undo.
// Cualquier violación rechaza la operación sin mutar estado.
func (s *Service) checkDoseGuards(ctx context.Context, ownerUserID string, clk clock.Clock, ref DoseRef) (MedicationSchedule, time.Time, error) {
	if strings.TrimSpace(ownerUserID) == "" || strings.TrimSpace(ref.ScheduleID) == "" {
		return MedicationSchedule{}, time.Time{}, ErrInvalidInput
	}
	if ref.Date.IsZero() {
		return MedicationSchedule{}, time.Time{}, fmt.Errorf("%w: scheduled date is required", ErrInvalidInput)
	}

	date := clock.DateOf(ref.Date)
	if date.After(clk.Today()) {
		return MedicationSchedule{}, time.Time{}, fmt.Errorf("%w: no future doses may be logged", ErrInvalidInput)
	}

	sched, err := s.repo.GetSchedule(ctx, ownerUserID, ref.ScheduleID)
	if err != nil {
		return MedicationSchedule{}, time.Time{}, err
	}

	if date.Before(sched.StartDate) {
		return MedicationSchedule{}, time.Time{}, fmt.Errorf("%w: date before schedule start", ErrInvalidInput)
	}

	// El schedule no puede exigir dosis anteriores a su propia alta.
	// CreatedAt se compara en calendario del cliente.
	createdDate := clock.DateOf(clk.FromStorage(sched.CreatedAt))
	if date.Before(createdDate) {
		return MedicationSchedule{}, time.Time{}, fmt.Errorf("%w: date before schedule creation", ErrInvalidInput)
	}

	dpd := sched.Frequency.DosesPerDay()
	if dpd > 0 && (ref.DoseNum < 1 || ref.DoseNum > dpd) {
		return MedicationSchedule{}, time.Time{}, fmt.Errorf("%w: invalid dose slot", ErrInvalidInput)
	}

	return sched, date, nil
}

func (s *Service) takenCountForDate(ctx context.Context, ownerUserID, scheduleID string, date time.Time) (int, error) {
	records, err := s.repo.ListDosesInRange(ctx, ownerUserID, scheduleID, date, date)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range records {
		if rec.Status == DoseTaken {
			n++
		}
	}
	return n, nil
}
