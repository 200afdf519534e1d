package insights

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
	r.Route("/insights/correlations", func(ir chi.Router) {
		ir.Get("/symptoms", symptomCorrelationsHandler(svc))
		ir.Get("/med-symptom", medSymptomCorrelationsHandler(svc))
	})
}

// symptomMatrixResponse: matriz simétrica, diagonal 1.0, celdas null
// cuando la correlación es indefinida.
type symptomMatrixResponse struct {
	Names  []string     `json:"names"`
	Matrix [][]*float64 `json:"matrix"`
}

type medSymptomMatrixResponse struct {
	MedNames     []string     `json:"med_names"`
	SymptomNames []string     `json:"symp_names"`
	Matrix       [][]*float64 `json:"matrix"`
}

// symptomCorrelationsHandler godoc
// @Summary Matriz de correlación síntoma×síntoma
// @Description Pearson sobre los promedios diarios de severidad. Cada par correlaciona solo los días donde ambos síntomas tienen datos; menos de 3 días en común da null.
// @Tags insights
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param from query string false "Fecha mínima (YYYY-MM-DD)"
// @Param to query string false "Fecha máxima (YYYY-MM-DD)"
// @Success 200 {object} symptomMatrixResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /insights/correlations/symptoms [get]
func symptomCorrelationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		from, to, err := parseDateRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		m, err := svc.SymptomCorrelations(r.Context(), ownerID, from, to)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, symptomMatrixResponse{Names: m.Names, Matrix: m.Matrix})
	}
}

// medSymptomCorrelationsHandler godoc
// @Summary Matriz de correlación medicación×síntoma
// @Description Filas = medicaciones (conteo diario de usos), columnas = síntomas (promedio diario de severidad). No simétrica. Medicación sin usos en los días con datos del síntoma da null.
// @Tags insights
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param from query string false "Fecha mínima (YYYY-MM-DD)"
// @Param to query string false "Fecha máxima (YYYY-MM-DD)"
// @Success 200 {object} medSymptomMatrixResponse
// @Failure 400 {string} string "filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /insights/correlations/med-symptom [get]
func medSymptomCorrelationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		from, to, err := parseDateRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		m, err := svc.MedSymptomCorrelations(r.Context(), ownerID, from, to)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, medSymptomMatrixResponse{
			MedNames:     m.MedNames,
			SymptomNames: m.SymptomNames,
			Matrix:       m.Matrix,
		})
	}
}

func parseDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		d, err := clock.ParseDate(v)
		if err != nil {
			return nil, nil, errors.New("from must be YYYY-MM-DD")
		}
		from = &d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		d, err := clock.ParseDate(v)
		if err != nil {
			return nil, nil, errors.New("to must be YYYY-MM-DD")
		}
		to = &d
	}
	return from, to, nil
}

func ownerFrom(r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", false
	}
	return claims.UserID, true
}

// writeJSON duplicado a propósito por módulo (ver symptoms/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
