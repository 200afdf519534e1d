package main

import (
	"net/http"
	"os"
	"time"

	"symptom-journal/internal/adapters/auth/ident"
	"symptom-journal/internal/platform/logger"
	"symptom-journal/internal/ports/auth"
	"symptom-journal/internal/router"
)

// @title Symptom Journal API
// @version 0.1
// @description Registro personal de síntomas y medicación: log temporal, schedules con adherencia y correlaciones.
// @BasePath /
func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Con AUTH_BASE_URL + AUTH_API_KEY se valida contra el servicio de
	// identidad; sin eso queda el modo dev (X-Debug-User-ID).
	var verifier auth.AuthVerifier
	if base := os.Getenv("AUTH_BASE_URL"); base != "" {
		v, err := ident.New(ident.Config{
			BaseURL: base,
			APIKey:  os.Getenv("AUTH_API_KEY"),
		})
		if err != nil {
			log.Error("auth verifier init failed, running in dev mode", map[string]any{
				"err": err.Error(),
			})
		} else {
			verifier = v
		}
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
}
