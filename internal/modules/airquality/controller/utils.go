package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"breather/internal/conditions"
	"breather/internal/engine"
	"breather/internal/utils"
)

const defaultHeartbeat = 25 * time.Second

type modeRequest struct {
	Mode string `json:"mode"`
}

// parseModeRequest reads the mode from the JSON body, falling back to the
// ?mode= query parameter when the body is empty.
func parseModeRequest(r *http.Request) (conditions.DisplayMode, error) {
	var body modeRequest
	err := utils.ReadJSON(r, &body)
	switch {
	case errors.Is(err, io.EOF):
		body.Mode = r.URL.Query().Get("mode")
	case err != nil:
		return conditions.ModeUS, err
	}
	if strings.TrimSpace(body.Mode) == "" {
		return conditions.ModeUS, errors.New("missing 'mode' (allowed: us, china)")
	}
	return conditions.ParseDisplayMode(body.Mode)
}

// parseWait reports whether ?wait= asks to block until the fetch completes.
func parseWait(r *http.Request) (bool, error) {
	s := r.URL.Query().Get("wait")
	if s == "" {
		return false, nil
	}
	wait, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("invalid 'wait' (expected boolean)")
	}
	return wait, nil
}

func parseStreamsQuery(r *http.Request) ([]engine.Stream, error) {
	return engine.ParseStreams(r.URL.Query().Get("streams"))
}
