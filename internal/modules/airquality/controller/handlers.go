package controller

import (
	"errors"
	"net/http"
	"time"

	"breather/internal/airvisual"
	"breather/internal/engine"
	"breather/internal/utils"
)

func (c *airQualityControllerImpl) handleConditions(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.engine.Snapshot())
}

func (c *airQualityControllerImpl) handleStats(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.engine.Stats())
}

func (c *airQualityControllerImpl) handleRefresh(w http.ResponseWriter, r *http.Request) {
	wait, err := parseWait(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !wait {
		accepted := c.engine.Refresh()
		utils.WriteJSON(w, http.StatusAccepted, map[string]bool{"accepted": accepted})
		return
	}

	err = c.engine.RefreshAndWait(r.Context())
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusOK, c.engine.Snapshot())
	case errors.Is(err, engine.ErrStopped):
		utils.WriteError(w, http.StatusServiceUnavailable, "engine stopped")
	case r.Context().Err() != nil:
		// Client went away; nothing useful to write.
		c.logger.Debug("refresh wait abandoned", "error", err)
	default:
		var fe *airvisual.FetchError
		if errors.As(err, &fe) {
			c.logger.Warn("refresh failed", "kind", fe.Kind.String(), "status", fe.Status, "error", err)
		}
		utils.WriteError(w, http.StatusBadGateway, err.Error())
	}
}

func (c *airQualityControllerImpl) handleSetMode(w http.ResponseWriter, r *http.Request) {
	mode, err := parseModeRequest(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := c.engine.SetMode(r.Context(), mode)
	if err != nil {
		if errors.Is(err, engine.ErrStopped) {
			utils.WriteError(w, http.StatusServiceUnavailable, "engine stopped")
			return
		}
		c.logger.Debug("set mode abandoned", "error", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, st)
}

// handleEvents streams a snapshot event followed by one update event per
// engine change touching the requested streams.
func (c *airQualityControllerImpl) handleEvents(w http.ResponseWriter, r *http.Request) {
	streams, err := parseStreamsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rc := http.NewResponseController(w)

	// Subscribe before reading the snapshot so no change falls in between.
	sub := c.engine.Subscribe(streams...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := c.send(rc, w, "snapshot", c.engine.Snapshot()); err != nil {
		c.logger.Debug("event stream closed", "error", err)
		return
	}

	heartbeat := time.NewTicker(c.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := c.send(rc, w, "update", u); err != nil {
				c.logger.Debug("event stream closed", "error", err)
				return
			}
		}
	}
}

func (c *airQualityControllerImpl) send(rc *http.ResponseController, w http.ResponseWriter, event string, v any) error {
	if err := utils.WriteEvent(w, event, v); err != nil {
		return err
	}
	return rc.Flush()
}

