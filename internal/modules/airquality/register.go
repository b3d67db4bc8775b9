package airquality

import (
	"log/slog"
	"net/http"

	"breather/internal/engine"
	"breather/internal/modules/airquality/controller"
	"breather/internal/modules/airquality/service"
)

func RegisterFeature(mux *http.ServeMux, eng *engine.Engine, logger *slog.Logger) {
	airQualityController := controller.NewAirQualityController(eng, logger)
	airQualityController.RegisterRoutes(mux)
}

// RegisterBridge wires the MQTT bridge. The returned service must be Run.
func RegisterBridge(eng *engine.Engine, broker service.Broker, topicPrefix string, logger *slog.Logger) (*service.Service, error) {
	bridge := service.NewService(eng, broker, topicPrefix, logger)
	if err := bridge.Register(); err != nil {
		return nil, err
	}
	return bridge, nil
}
