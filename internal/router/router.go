package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/weathervane/weathervane/internal/api/collectorcfg"
	"github.com/weathervane/weathervane/internal/api/insights"
	"github.com/weathervane/weathervane/internal/api/locations"
	"github.com/weathervane/weathervane/internal/api/weather"
)

// Config contains dependencies needed for the router setup
type Config struct {
	LocationHandler        *locations.LocationHandler
	ConfigHandler          *collectorcfg.ConfigHandler
	SampleHandler          *weather.SampleHandler
	InsightHandler         *insights.InsightHandler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// --- Public routes ---
		r.Group(func(r chi.Router) {
			r.Get("/locations/active", cfg.LocationHandler.ListActive)
			r.Get("/config/collector", cfg.ConfigHandler.Get)
			r.Post("/weather/logs", cfg.SampleHandler.Submit)
		})

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/locations", cfg.LocationHandler.Create)
			r.Get("/locations", cfg.LocationHandler.List)
			r.Patch("/locations/{id}", cfg.LocationHandler.Update)
			r.Delete("/locations/{id}", cfg.LocationHandler.Delete)

			r.Patch("/config/collector", cfg.ConfigHandler.Update)

			r.Get("/weather/logs", cfg.SampleHandler.List)
			r.Get("/weather/cities", cfg.SampleHandler.Cities)
			r.Get("/weather/export/csv", cfg.SampleHandler.ExportCSV)
			r.Get("/weather/export/xlsx", cfg.SampleHandler.ExportXLSX)

			r.Get("/weather/insights", cfg.InsightHandler.Latest)
			r.Post("/weather/insights", cfg.InsightHandler.Generate)
		})
	})

	return r
}
