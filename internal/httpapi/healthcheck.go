package httpapi

import (
	"net/http"

	"breather/internal/utils"
)

// BrokerStatus reports MQTT connectivity. A nil BrokerStatus means MQTT is
// disabled.
type BrokerStatus interface {
	IsConnected() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	broker BrokerStatus
}

func NewHealthchecker(broker BrokerStatus) healthchecker {
	return &healthcheckerImpl{broker: broker}
}

// handleHealthz always answers 200; a broker outage degrades the bridge but
// not the HTTP surface.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	mqttStatus := "disabled"
	if h.broker != nil {
		mqttStatus = "disconnected"
		if h.broker.IsConnected() {
			mqttStatus = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mqtt":   mqttStatus,
	})
}

func registerHealthcheck(mux *http.ServeMux, broker BrokerStatus) {
	healthchecker := NewHealthchecker(broker)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
