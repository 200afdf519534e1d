package schedules

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"symptom-journal/internal/middleware"
	"symptom-journal/internal/platform/clock"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/schedules", func(sr chi.Router) {
		sr.Post("/", createScheduleHandler(svc))
		sr.Get("/", listSchedulesHandler(svc))
		sr.Patch("/{scheduleID}", updateScheduleHandler(svc))
		sr.Post("/{scheduleID}/deactivate", deactivateScheduleHandler(svc))
		sr.Post("/{scheduleID}/pause", pauseScheduleHandler(svc, true))
		sr.Post("/{scheduleID}/resume", pauseScheduleHandler(svc, false))

		// Query interface
		sr.Get("/day", dayHandler(svc))
		sr.Get("/adherence", adherenceHandler(svc))

		// Transiciones de la máquina de estados
		sr.Post("/doses/take", takeDoseHandler(svc))
		sr.Post("/doses/miss", missDoseHandler(svc))
		sr.Post("/doses/undo", undoDoseHandler(svc))
	})
}

// scheduleRequest es el cuerpo para crear o editar un schedule.
type scheduleRequest struct {
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Notes     string `json:"notes"`
	Frequency string `json:"frequency" enums:"once_daily,twice_daily,three_daily,prn"`
	StartDate string `json:"start_date"` // YYYY-MM-DD; vacío = hoy
}

type scheduleResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Notes     string `json:"notes"`
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date"`
	Active    bool   `json:"active"`
	Paused    bool   `json:"paused"`
}

// doseRequest referencia un slot para take/miss/undo.
type doseRequest struct {
	ScheduleID    string `json:"schedule_id"`
	ScheduledDate string `json:"scheduled_date"` // YYYY-MM-DD
	DoseNum       int    `json:"dose_num"`
	TakenTime     string `json:"taken_time"` // HH:MM, solo take, opcional
}

type daySlotResponse struct {
	ScheduleID string `json:"schedule_id"`
	Name       string `json:"name"`
	Dose       string `json:"dose"`
	DoseNum    int    `json:"dose_num"`
	Label      string `json:"label"`
	Status     string `json:"status" enums:"pending,taken,missed"`
	TakenAt    string `json:"taken_at,omitempty"`
}

type prnEntryResponse struct {
	DoseNum int    `json:"dose_num"`
	TakenAt string `json:"taken_at"`
}

type prnTallyResponse struct {
	ScheduleID string             `json:"schedule_id"`
	Name       string             `json:"name"`
	Dose       string             `json:"dose"`
	Count      int                `json:"count"`
	Entries    []prnEntryResponse `json:"entries"`
}

type dayResponse struct {
	Date  string             `json:"date"`
	Slots []daySlotResponse  `json:"slots"`
	PRN   []prnTallyResponse `json:"prn"`
}

type adherenceResponse struct {
	ScheduleID    string   `json:"schedule_id"`
	Name          string   `json:"name"`
	Dose          string   `json:"dose"`
	Frequency     string   `json:"frequency"`
	Expected7d    *int     `json:"expected_7d"`
	Taken7d       int      `json:"taken_7d"`
	Adherence7dPc *float64 `json:"adherence_7d_pct"`
	Level         string   `json:"level" enums:"good,mid,low,as_needed,no_data"`
}

// createScheduleHandler godoc
// @Summary Crear schedule de medicación
// @Description Da de alta un régimen. start_date no puede ser futura; vacía significa hoy (calendario del cliente).
// @Tags schedules
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param payload body scheduleRequest true "Datos del schedule"
// @Success 201 {object} scheduleResponse
// @Failure 400 {string} string "frecuencia desconocida / start futura"
// @Failure 401 {string} string "unauthorized"
// @Router /schedules [post]
func createScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in, err := toCreateInput(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sched, err := svc.Create(r.Context(), ownerID, clock.FromRequest(r), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toScheduleResponse(sched))
	}
}

// listSchedulesHandler godoc
// @Summary Listar schedules
// @Tags schedules
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param all query bool false "Incluir schedules dados de baja"
// @Success 200 {array} scheduleResponse
// @Failure 401 {string} string "unauthorized"
// @Router /schedules [get]
func listSchedulesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		onlyActive := !strings.EqualFold(r.URL.Query().Get("all"), "true")
		items, err := svc.List(r.Context(), ownerID, onlyActive)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]scheduleResponse, 0, len(items))
		for _, sched := range items {
			out = append(out, toScheduleResponse(sched))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// updateScheduleHandler godoc
// @Summary Editar schedule
// @Description Solo schedules activos son editables.
// @Tags schedules
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param scheduleID path string true "ID del schedule"
// @Param payload body scheduleRequest true "Datos nuevos"
// @Success 200 {object} scheduleResponse
// @Failure 400 {string} string "reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "schedule dado de baja"
// @Router /schedules/{scheduleID} [patch]
func updateScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in, err := toCreateInput(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sched, err := svc.Update(r.Context(), ownerID, chi.URLParam(r, "scheduleID"), clock.FromRequest(r), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(sched))
	}
}

// deactivateScheduleHandler godoc
// @Summary Dar de baja un schedule
// @Description Baja soft: el historial de dosis se conserva.
// @Tags schedules
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param scheduleID path string true "ID del schedule"
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /schedules/{scheduleID}/deactivate [post]
func deactivateScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.Deactivate(r.Context(), ownerID, chi.URLParam(r, "scheduleID")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// pauseScheduleHandler godoc
// @Summary Pausar / reanudar schedule
// @Description Pausado queda fuera de la vista diaria pero conserva historial.
// @Tags schedules
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param scheduleID path string true "ID del schedule"
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "schedule dado de baja"
// @Router /schedules/{scheduleID}/pause [post]
func pauseScheduleHandler(svc *Service, pause bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var err error
		if pause {
			err = svc.Pause(r.Context(), ownerID, chi.URLParam(r, "scheduleID"))
		} else {
			err = svc.Resume(r.Context(), ownerID, chi.URLParam(r, "scheduleID"))
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// dayHandler godoc
// @Summary Slots esperados de una fecha
// @Description Enumera los slots (con estado pending/taken/missed) de los schedules activos y no pausados, más el conteo del día de los as-needed.
// @Tags schedules
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param d query string false "Fecha YYYY-MM-DD (default hoy)"
// @Success 200 {object} dayResponse
// @Failure 400 {string} string "fecha inválida o futura"
// @Failure 401 {string} string "unauthorized"
// @Router /schedules/day [get]
func dayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		clk := clock.FromRequest(r)
		day := clk.Today()
		if v := strings.TrimSpace(r.URL.Query().Get("d")); v != "" {
			d, err := clock.ParseDate(v)
			if err != nil {
				http.Error(w, "d must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			day = d
		}

		view, err := svc.Day(r.Context(), ownerID, clk, day)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDayResponse(view, clk))
	}
}

// adherenceHandler godoc
// @Summary Adherencia 7 días por schedule
// @Description Ventana móvil de 7 días (recortada al start del schedule). Los as-needed reportan solo conteo, sin porcentaje.
// @Tags schedules
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Success 200 {array} adherenceResponse
// @Failure 401 {string} string "unauthorized"
// @Router /schedules/adherence [get]
func adherenceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.AdherenceAll(r.Context(), ownerID, clock.FromRequest(r))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]adherenceResponse, 0, len(items))
		for _, item := range items {
			out = append(out, adherenceResponse{
				ScheduleID:    item.Schedule.ID,
				Name:          item.Schedule.Name,
				Dose:          item.Schedule.Dose,
				Frequency:     string(item.Schedule.Frequency),
				Expected7d:    item.Adherence.Expected,
				Taken7d:       item.Adherence.Taken,
				Adherence7dPc: item.Adherence.Percentage,
				Level:         string(item.Level),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// takeDoseHandler godoc
// @Summary Marcar dosis tomada
// @Description pending|missed => taken. taken_time (HH:MM) opcional; futura o anterior al alta del schedule en su día de alta se rechaza. Para as-needed appende el siguiente slot.
// @Tags schedules
// @Accept json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param payload body doseRequest true "Referencia del slot"
// @Success 204 {string} string ""
// @Failure 400 {string} string "guardas de la máquina de estados"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "schedule not found"
// @Router /schedules/doses/take [post]
func takeDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		req, ref, err := decodeDoseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var takenLocal *time.Time
		if strings.TrimSpace(req.TakenTime) != "" {
			t, err := time.ParseInLocation("2006-01-02 15:04", clock.DateOf(ref.Date).Format(clock.DateLayout)+" "+strings.TrimSpace(req.TakenTime), time.UTC)
			if err != nil {
				http.Error(w, "taken_time must be HH:MM", http.StatusBadRequest)
				return
			}
			takenLocal = &t
		}

		if err := svc.Take(r.Context(), ownerID, clock.FromRequest(r), ref, takenLocal); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// missDoseHandler godoc
// @Summary Marcar dosis salteada
// @Description pending|taken => missed (limpia taken-at). No aplica a as-needed.
// @Tags schedules
// @Accept json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param payload body doseRequest true "Referencia del slot"
// @Success 204 {string} string ""
// @Failure 400 {string} string "guardas de la máquina de estados"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "schedule not found"
// @Router /schedules/doses/miss [post]
func missDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		_, ref, err := decodeDoseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := svc.Miss(r.Context(), ownerID, clock.FromRequest(r), ref); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// undoDoseHandler godoc
// @Summary Deshacer transición de dosis
// @Description taken|missed => pending (borra el registro). Para as-needed deshace la entrada más reciente del día.
// @Tags schedules
// @Accept json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param payload body doseRequest true "Referencia del slot"
// @Success 204 {string} string ""
// @Failure 400 {string} string "guardas de la máquina de estados"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "schedule not found"
// @Router /schedules/doses/undo [post]
func undoDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		_, ref, err := decodeDoseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := svc.Undo(r.Context(), ownerID, clock.FromRequest(r), ref); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeDoseRequest(r *http.Request) (doseRequest, DoseRef, error) {
	var req doseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return doseRequest{}, DoseRef{}, errors.New("invalid json")
	}

	date, err := clock.ParseDate(req.ScheduledDate)
	if err != nil {
		return doseRequest{}, DoseRef{}, errors.New("scheduled_date must be YYYY-MM-DD")
	}

	ref := DoseRef{
		ScheduleID: strings.TrimSpace(req.ScheduleID),
		Date:       date,
		DoseNum:    req.DoseNum,
	}
	return req, ref, nil
}

func toCreateInput(req scheduleRequest) (CreateInput, error) {
	in := CreateInput{
		Name:      req.Name,
		Dose:      req.Dose,
		Notes:     req.Notes,
		Frequency: Frequency(strings.TrimSpace(req.Frequency)),
	}
	if strings.TrimSpace(req.StartDate) != "" {
		d, err := clock.ParseDate(req.StartDate)
		if err != nil {
			return CreateInput{}, errors.New("start_date must be YYYY-MM-DD")
		}
		in.StartDate = d
	}
	return in, nil
}

func toScheduleResponse(s MedicationSchedule) scheduleResponse {
	return scheduleResponse{
		ID:        s.ID,
		Name:      s.Name,
		Dose:      s.Dose,
		Notes:     s.Notes,
		Frequency: string(s.Frequency),
		StartDate: s.StartDate.Format(clock.DateLayout),
		Active:    s.Active,
		Paused:    s.Paused,
	}
}

func toDayResponse(view DayView, clk clock.Clock) dayResponse {
	out := dayResponse{
		Date:  view.Date.Format(clock.DateLayout),
		Slots: make([]daySlotResponse, 0, len(view.Slots)),
		PRN:   make([]prnTallyResponse, 0, len(view.PRN)),
	}
	for _, slot := range view.Slots {
		sr := daySlotResponse{
			ScheduleID: slot.ScheduleID,
			Name:       slot.Name,
			Dose:       slot.Dose,
			DoseNum:    slot.DoseNum,
			Label:      slot.Label,
			Status:     string(slot.Status),
		}
		if slot.TakenAt != nil {
			sr.TakenAt = clk.FromStorage(*slot.TakenAt).Format(clock.StorageLayout)
		}
		out.Slots = append(out.Slots, sr)
	}
	for _, tally := range view.PRN {
		tr := prnTallyResponse{
			ScheduleID: tally.ScheduleID,
			Name:       tally.Name,
			Dose:       tally.Dose,
			Count:      tally.Count,
			Entries:    make([]prnEntryResponse, 0, len(tally.Entries)),
		}
		for _, e := range tally.Entries {
			tr.Entries = append(tr.Entries, prnEntryResponse{
				DoseNum: e.DoseNum,
				TakenAt: clk.FromStorage(e.TakenAt).Format(clock.StorageLayout),
			})
		}
		out.PRN = append(out.PRN, tr)
	}
	return out
}

func ownerFrom(r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", false
	}
	return claims.UserID, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON duplicado a propósito por módulo (ver symptoms/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
