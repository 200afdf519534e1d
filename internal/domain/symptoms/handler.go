package symptoms

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
	r.Route("/symptoms", func(sr chi.Router) {
		sr.Post("/", logSymptomHandler(svc))
		sr.Get("/", listSymptomsHandler(svc))
		sr.Get("/{symptomID}", getSymptomHandler(svc))
		sr.Patch("/{symptomID}", updateSymptomHandler(svc))

		// Soft delete + undo acotado (ventana fija)
		sr.Post("/{symptomID}/delete", deleteSymptomHandler(svc))
		sr.Post("/{symptomID}/restore", restoreSymptomHandler(svc))
	})
}

// localTimeLayouts: el cliente manda wall-clock local estilo
// datetime-local (con o sin segundos).
var localTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// symptomRequest es el cuerpo para registrar o editar un síntoma.
type symptomRequest struct {
	Name     string `json:"name"`
	Severity int    `json:"severity"`
	Notes    string `json:"notes"`
	StartAt  string `json:"start_at"` // local, datetime-local; vacío = ahora
	EndAt    string `json:"end_at"`   // opcional, local
}

// symptomResponse representa una entrada del log devuelta por la API.
// Timestamps en hora local del cliente (según X-TZ-Offset-Min).
type symptomResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Severity int    `json:"severity"`
	Notes    string `json:"notes"`
	StartAt  string `json:"start_at"`
	EndAt    string `json:"end_at,omitempty"`
}

// logSymptomHandler godoc
// @Summary Registrar síntoma
// @Description Crea una entrada de síntoma para el usuario autenticado. Timestamps en hora local del cliente; el offset viene en X-TZ-Offset-Min (minutos, convención JS).
// @Tags symptoms
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-TZ-Offset-Min header int false "Offset de zona horaria del cliente en minutos"
// @Param payload body symptomRequest true "Datos del síntoma"
// @Success 201 {object} symptomResponse
// @Failure 400 {string} string "reglas de negocio (severidad fuera de 1-10, fecha futura, end <= start)"
// @Failure 401 {string} string "unauthorized"
// @Router /symptoms [post]
func logSymptomHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req symptomRequest
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

		writeJSON(w, http.StatusCreated, toSymptomResponse(e, clk))
	}
}

// listSymptomsHandler godoc
// @Summary Listar síntomas
// @Description Lista entradas de síntomas del usuario (excluye borradas). Permite filtrar por rango de fechas y texto libre.
// @Tags symptoms
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param from query string false "Fecha mínima (YYYY-MM-DD)"
// @Param to query string false "Fecha máxima (YYYY-MM-DD)"
// @Param q query string false "Texto en nombre/notas"
// @Param limit query int false "Máximo de entradas (1-500). Default 100"
// @Success 200 {array} symptomResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /symptoms [get]
func listSymptomsHandler(svc *Service) http.HandlerFunc {
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
		out := make([]symptomResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toSymptomResponse(e, clk))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getSymptomHandler godoc
// @Summary Obtener síntoma
// @Tags symptoms
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param symptomID path string true "ID del síntoma"
// @Success 200 {object} symptomResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /symptoms/{symptomID} [get]
func getSymptomHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.GetByID(r.Context(), ownerID, chi.URLParam(r, "symptomID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSymptomResponse(e, clock.FromRequest(r)))
	}
}

// updateSymptomHandler godoc
// @Summary Editar síntoma
// @Description Reemplaza nombre, severidad, notas y timestamps de la entrada.
// @Tags symptoms
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param X-TZ-Offset-Min header int false "Offset del cliente en minutos"
// @Param symptomID path string true "ID del síntoma"
// @Param payload body symptomRequest true "Datos nuevos"
// @Success 200 {object} symptomResponse
// @Failure 400 {string} string "reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /symptoms/{symptomID} [patch]
func updateSymptomHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req symptomRequest
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
		e, err := svc.Update(r.Context(), ownerID, chi.URLParam(r, "symptomID"), clk, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSymptomResponse(e, clk))
	}
}

// deleteSymptomHandler godoc
// @Summary Borrar síntoma (soft delete)
// @Description Marca la entrada como borrada sin removerla. Restaurable por 20 segundos vía restore.
// @Tags symptoms
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param symptomID path string true "ID del síntoma"
// @Success 204 {string} string ""
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "ya estaba borrada"
// @Router /symptoms/{symptomID}/delete [post]
func deleteSymptomHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.SoftDelete(r.Context(), ownerID, chi.URLParam(r, "symptomID"), clock.FromRequest(r)); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// restoreSymptomHandler godoc
// @Summary Restaurar síntoma borrado
// @Description Deshace un soft delete dentro de la ventana de undo (20s). Pasada la ventana responde 409 y no muta nada.
// @Tags symptoms
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param symptomID path string true "ID del síntoma"
// @Success 200 {object} symptomResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "no estaba borrada / ventana de undo vencida"
// @Router /symptoms/{symptomID}/restore [post]
func restoreSymptomHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		clk := clock.FromRequest(r)
		e, err := svc.Restore(r.Context(), ownerID, chi.URLParam(r, "symptomID"), clk)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSymptomResponse(e, clk))
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
		// inclusivo hasta fin del día
		end := d.Add(24*time.Hour - time.Second)
		filter.To = &end
	}
	if v := strings.TrimSpace(r.URL.Query().Get("q")); v != "" {
		filter.Query = v
	}

	return filter, nil
}

func toLogInput(req symptomRequest) (LogInput, error) {
	in := LogInput{
		Name:     req.Name,
		Severity: req.Severity,
		Notes:    req.Notes,
	}

	if strings.TrimSpace(req.StartAt) != "" {
		t, err := parseLocalTime(req.StartAt)
		if err != nil {
			return LogInput{}, errors.New("start_at must be local datetime (YYYY-MM-DDTHH:MM)")
		}
		in.StartAt = t
	}
	if strings.TrimSpace(req.EndAt) != "" {
		t, err := parseLocalTime(req.EndAt)
		if err != nil {
			return LogInput{}, errors.New("end_at must be local datetime (YYYY-MM-DDTHH:MM)")
		}
		in.EndAt = &t
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

func toSymptomResponse(e SymptomEvent, clk clock.Clock) symptomResponse {
	resp := symptomResponse{
		ID:       e.ID,
		Name:     e.Name,
		Severity: e.Severity,
		Notes:    e.Notes,
		StartAt:  clk.FromStorage(e.StartAt).Format(clock.StorageLayout),
	}
	if e.EndAt != nil {
		resp.EndAt = clk.FromStorage(*e.EndAt).Format(clock.StorageLayout)
	}
	return resp
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
	case errors.Is(err, ErrBadState), errors.Is(err, ErrUndoExpired):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
