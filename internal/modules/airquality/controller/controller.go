package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"breather/internal/conditions"
	"breather/internal/engine"
)

// Engine is the part of *engine.Engine the HTTP surface drives.
type Engine interface {
	Snapshot() engine.State
	Refresh() bool
	RefreshAndWait(ctx context.Context) error
	SetMode(ctx context.Context, mode conditions.DisplayMode) (engine.State, error)
	Subscribe(streams ...engine.Stream) *engine.Subscription
	Stats() engine.Stats
}

type AirQualityController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type airQualityControllerImpl struct {
	engine    Engine
	logger    *slog.Logger
	heartbeat time.Duration
}

func NewAirQualityController(eng Engine, logger *slog.Logger) AirQualityController {
	return &airQualityControllerImpl{
		engine:    eng,
		logger:    logger.With("component", "airquality"),
		heartbeat: defaultHeartbeat,
	}
}

func (c *airQualityControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/conditions", c.handleConditions)
	mux.HandleFunc("POST /api/v1/refresh", c.handleRefresh)
	mux.HandleFunc("PUT /api/v1/mode", c.handleSetMode)
	mux.HandleFunc("GET /api/v1/events", c.handleEvents)
	mux.HandleFunc("GET /api/v1/stats", c.handleStats)
}
