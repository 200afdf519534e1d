package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"symptom-journal/internal/middleware"
	"symptom-journal/internal/platform/clock"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", logMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))
		mr.Patch("/{medID}", updateMedicationHandler(svc))
		mr.Delete("/{medID}", deleteMedicationHandler(svc))
	})
}

var localTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// medicationRequest es el cuerpo para loguear o editar un uso de medicación.
type medicationRequest struct {
	Name    string `json:"name"`
	Dose    string `json:"dose"`
	Notes   string `json:"notes"`
	TakenAt string `json:"taken_at"` // local, datetime-local; vacío = ahora
}

type medicationResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Dose    string `json:"dose"`
	Notes   string `json:"notes"`
	TakenAt string `json:"taken_at"`
}

// logMedicationHandler godoc
// @Summary Loguear uso de medicación
// @Description Registra una toma ad hoc (fuera de schedules). Alimenta el conteo diario para correlaciones.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param payload body medicationRequest true "Datos de la toma"
// @Success 201 {object} medicationResponse
// @Failure 400 {string} string "nombre vacío / fecha futura"
// @Failure 401 {string} string "unauthorized"
// @Router /medications [post]
func logMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req medicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in, err := toLogInput(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		clk := clock.FromRequest(r)
		e, err := svc.Log(r.Context(), ownerID, clk, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMedicationResponse(e, clk))
	}
}

// listMedicationsHandler godoc
// @Summary Listar usos de medicación
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param from query string false "Fecha mínima (YYYY-MM-DD)"
// @Param to query string false "Fecha máxima (YYYY-MM-DD)"
// @Param q query string false "Texto en nombre/notas"
// @Param limit query int false "Máximo de entradas (1-500). Default 100"
// @Success 200 {array} medicationResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /medications [get]
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByOwner(r.Context(), ownerID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		clk := clock.FromRequest(r)
		out := make([]medicationResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toMedicationResponse(e, clk))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// updateMedicationHandler godoc
// @Summary Editar uso de medicación
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param medID path string true "ID de la entrada"
// @Param payload body medicationRequest true "Datos nuevos"
// @Success 200 {object} medicationResponse
// @Failure 400 {string} string "reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /medications/{medID} [patch]
func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req medicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in, err := toLogInput(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		clk := clock.FromRequest(r)
		e, err := svc.Update(r.Context(), ownerID, chi.URLParam(r, "medID"), clk, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(e, clk))
	}
}

// deleteMedicationHandler godoc
// @Summary Borrar uso de medicación
// @Description Borrado físico: las entradas ad hoc no tienen soft delete.
// @Tags medications
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param medID path string true "ID de la entrada"
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /medications/{medID} [delete]
func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), ownerID, chi.URLParam(r, "medID")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		d, err := clock.ParseDate(v)
		if err != nil {
			return ListFilter{}, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = &d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		d, err := clock.ParseDate(v)
		if err != nil {
			return ListFilter{}, errors.New("to must be YYYY-MM-DD")
		}
		end := d.Add(24*time.Hour - time.Second)
		filter.To = &end
	}
	if v := strings.TrimSpace(r.URL.Query().Get("q")); v != "" {
		filter.Query = v
	}

	return filter, nil
}

func toLogInput(req medicationRequest) (LogInput, error) {
	in := LogInput{
		Name:  req.Name,
		Dose:  req.Dose,
		Notes: req.Notes,
	}
	if strings.TrimSpace(req.TakenAt) != "" {
		t, err := parseLocalTime(req.TakenAt)
		if err != nil {
			return LogInput{}, errors.New("taken_at must be local datetime (YYYY-MM-DDTHH:MM)")
		}
		in.TakenAt = t
	}
	return in, nil
}

func parseLocalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range localTimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func toMedicationResponse(e MedicationLogEntry, clk clock.Clock) medicationResponse {
	return medicationResponse{
		ID:      e.ID,
		Name:    e.Name,
		Dose:    e.Dose,
		Notes:   e.Notes,
		TakenAt: clk.FromStorage(e.TakenAt).Format(clock.StorageLayout),
	}
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
