package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flexledger/flexledger/internal/api/handlers"
	custommiddleware "github.com/flexledger/flexledger/internal/api/middleware"
	"github.com/flexledger/flexledger/internal/config"
	"github.com/flexledger/flexledger/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	importService *service.ImportService,
	flexConfigService *service.FlexConfigService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/import", func(r chi.Router) {
			importHandler := handlers.NewImportHandler(importService)
			r.Post("/csv", importHandler.UploadCSV)
			r.Post("/flex", importHandler.SyncFlex)
			r.Post("/confirm", importHandler.Confirm)
			r.Get("/runs", importHandler.Runs)
			r.Route("/runs/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", importHandler.Run)
			})
		})

		r.Route("/accounts", func(r chi.Router) {
			accountHandler := handlers.NewAccountHandler(importService)
			r.Get("/preview", accountHandler.Preview)
		})

		r.Route("/flex/config", func(r chi.Router) {
			flexConfigHandler := handlers.NewFlexConfigHandler(flexConfigService)
			r.Get("/", flexConfigHandler.GetConfig)
			if cfg.Server.APIKeyRequired {
				r.With(custommiddleware.APIKeyMiddleware).Put("/", flexConfigHandler.UpdateConfig)
				r.With(custommiddleware.APIKeyMiddleware).Delete("/", flexConfigHandler.DeleteConfig)
			} else {
				r.Put("/", flexConfigHandler.UpdateConfig)
				r.Delete("/", flexConfigHandler.DeleteConfig)
			}
		})
	})

	return r
}
