package http

import (
	"net/http"
)

type RouterConfig struct {
	Reservations *ReservationHandler
	Blackouts    *BlackoutHandler
	KeyManagers  *KeyManagerHandler
	Campuses     *CampusHandler
	Health       *HealthHandler
	Middleware   []func(http.Handler) http.Handler
}

// HealthPath is served without an X-User-ID header.
const HealthPath = "/healthz"

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Reservations != nil {
		mux.HandleFunc("POST /reservations", cfg.Reservations.Create)
		mux.HandleFunc("GET /reservations", cfg.Reservations.ListByDate)
		mux.HandleFunc("GET /reservations/mine", cfg.Reservations.ListMine)
		mux.HandleFunc("GET /reservations/weekly", cfg.Reservations.Weekly)
		mux.HandleFunc("POST /reservations/{id}/cancel", cfg.Reservations.Cancel)
		mux.HandleFunc("POST /reservations/{id}/key/pickup", cfg.Reservations.PickUpKey)
		mux.HandleFunc("POST /reservations/{id}/key/return", cfg.Reservations.ReturnKey)
		mux.HandleFunc("GET /campuses/{id}/key-pickups", cfg.Reservations.ListKeyPickups)
		mux.HandleFunc("GET /admin/reservations", cfg.Reservations.History)
	}

	if cfg.Blackouts != nil {
		mux.HandleFunc("GET /admin/blackouts", cfg.Blackouts.List)
		mux.HandleFunc("POST /admin/blackouts", cfg.Blackouts.Create)
		mux.HandleFunc("DELETE /admin/blackouts/{id}", cfg.Blackouts.Delete)
	}

	if cfg.KeyManagers != nil {
		mux.HandleFunc("GET /admin/key-managers", cfg.KeyManagers.List)
		mux.HandleFunc("POST /admin/key-managers", cfg.KeyManagers.Create)
		mux.HandleFunc("PATCH /admin/key-managers/{id}", cfg.KeyManagers.Update)
		mux.HandleFunc("DELETE /admin/key-managers/{id}", cfg.KeyManagers.Delete)
		mux.HandleFunc("GET /campuses/{id}/key-managers", cfg.KeyManagers.ListForCampus)
	}

	if cfg.Campuses != nil {
		mux.HandleFunc("GET /campuses", cfg.Campuses.List)
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET "+HealthPath, cfg.Health.Check)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
