package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"breather/internal/config"
)

// NewServer sets no WriteTimeout: /api/v1/events responses are long-lived.
func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
