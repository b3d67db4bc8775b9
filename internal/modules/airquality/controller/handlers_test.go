package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"breather/internal/airvisual"
	"breather/internal/conditions"
	"breather/internal/engine"
)

type failingFetcher struct{ err error }

func (f failingFetcher) FetchConditions(context.Context, float64, float64) (conditions.CityConditions, error) {
	return conditions.CityConditions{}, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startEngine(t *testing.T, fetcher engine.Fetcher) *engine.Engine {
	t.Helper()
	e := engine.New(engine.Options{
		Fetcher: fetcher,
		Lat:     conditions.DefaultLat,
		Lon:     conditions.DefaultLon,
		Logger:  quietLogger(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})
	return e
}

func newController(e Engine) *airQualityControllerImpl {
	return NewAirQualityController(e, quietLogger()).(*airQualityControllerImpl)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) engine.State {
	t.Helper()
	var st engine.State
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func Test_handleConditions(t *testing.T) {
	e := startEngine(t, airvisual.SampleSource{})
	ctrl := newController(e)

	t.Run("placeholder before first fetch", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ctrl.handleConditions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/conditions", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		st := decodeState(t, rec)
		if st.City != "..." {
			t.Errorf("city = %q; want %q", st.City, "...")
		}
		if st.Conditions != nil {
			t.Errorf("conditions = %+v; want nil", st.Conditions)
		}
	})

	t.Run("derived values after fetch", func(t *testing.T) {
		if err := e.RefreshAndWait(context.Background()); err != nil {
			t.Fatalf("RefreshAndWait() error = %v", err)
		}
		rec := httptest.NewRecorder()
		ctrl.handleConditions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/conditions", nil))

		st := decodeState(t, rec)
		if st.City != "New York" {
			t.Errorf("city = %q; want %q", st.City, "New York")
		}
		if st.AQI != "AQI: 9" {
			t.Errorf("aqi = %q; want %q", st.AQI, "AQI: 9")
		}
		if st.Mode != conditions.ModeUS {
			t.Errorf("mode = %v; want us", st.Mode)
		}
	})
}

func Test_handleRefresh(t *testing.T) {
	t.Run("fire and forget", func(t *testing.T) {
		ctrl := newController(startEngine(t, airvisual.SampleSource{}))
		rec := httptest.NewRecorder()
		ctrl.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusAccepted)
		}
		var body map[string]bool
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := body["accepted"]; !ok {
			t.Errorf("body = %v; want accepted field", body)
		}
	})

	t.Run("wait returns fresh state", func(t *testing.T) {
		ctrl := newController(startEngine(t, airvisual.SampleSource{}))
		rec := httptest.NewRecorder()
		ctrl.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh?wait=true", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		st := decodeState(t, rec)
		if st.City != "New York" || st.IsLoading {
			t.Errorf("state = %+v; want loaded New York", st)
		}
	})

	t.Run("wait surfaces fetch failure", func(t *testing.T) {
		fetchErr := &airvisual.FetchError{Kind: airvisual.TransportError, Status: 403, Err: errors.New("incorrect_api_key")}
		ctrl := newController(startEngine(t, failingFetcher{err: fetchErr}))
		rec := httptest.NewRecorder()
		ctrl.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh?wait=1", nil))

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusBadGateway)
		}
		if !strings.Contains(rec.Body.String(), "incorrect_api_key") {
			t.Errorf("body = %q; want fetch error message", rec.Body.String())
		}
	})

	t.Run("invalid wait", func(t *testing.T) {
		ctrl := newController(startEngine(t, airvisual.SampleSource{}))
		rec := httptest.NewRecorder()
		ctrl.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh?wait=soon", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_handleStats(t *testing.T) {
	e := startEngine(t, failingFetcher{err: errors.New("offline")})
	_ = e.RefreshAndWait(context.Background())
	ctrl := newController(e)

	rec := httptest.NewRecorder()
	ctrl.handleStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	var got engine.Stats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Fetches != 1 || got.Failures != 1 || got.InFlight {
		t.Errorf("stats = %+v; want one failed fetch", got)
	}
}

func Test_handleSetMode(t *testing.T) {
	e := startEngine(t, airvisual.SampleSource{})
	if err := e.RefreshAndWait(context.Background()); err != nil {
		t.Fatalf("RefreshAndWait() error = %v", err)
	}
	ctrl := newController(e)

	tests := []struct {
		name       string
		url        string
		body       string
		wantStatus int
		wantAQI    string
	}{
		{name: "json body", url: "/api/v1/mode", body: `{"mode":"china"}`, wantStatus: http.StatusOK, wantAQI: "AQI: 3"},
		{name: "query param", url: "/api/v1/mode?mode=us", wantStatus: http.StatusOK, wantAQI: "AQI: 9"},
		{name: "numeric", url: "/api/v1/mode?mode=1", wantStatus: http.StatusOK, wantAQI: "AQI: 3"},
		{name: "unknown mode", url: "/api/v1/mode", body: `{"mode":"eu"}`, wantStatus: http.StatusBadRequest},
		{name: "missing mode", url: "/api/v1/mode", wantStatus: http.StatusBadRequest},
		{name: "malformed body", url: "/api/v1/mode", body: `{"mode":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tt.url, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			ctrl.handleSetMode(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantAQI == "" {
				return
			}
			if st := decodeState(t, rec); st.AQI != tt.wantAQI {
				t.Errorf("aqi = %q; want %q", st.AQI, tt.wantAQI)
			}
		})
	}
}

func Test_handleSetMode_EngineStopped(t *testing.T) {
	e := engine.New(engine.Options{Fetcher: airvisual.SampleSource{}, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = e.Run(ctx)

	rec := httptest.NewRecorder()
	newController(e).handleSetMode(rec, httptest.NewRequest(http.MethodPut, "/api/v1/mode?mode=china", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// readEvent reads one server-sent event, skipping comment lines.
func readEvent(t *testing.T, r *bufio.Reader) (event string, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openEvents(t *testing.T, ctrl *airQualityControllerImpl, query string) *bufio.Reader {
	t.Helper()
	mux := http.NewServeMux()
	ctrl.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events"+query, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q; want text/event-stream", ct)
	}
	return bufio.NewReader(resp.Body)
}

func Test_handleEvents(t *testing.T) {
	e := startEngine(t, airvisual.SampleSource{})
	if err := e.RefreshAndWait(context.Background()); err != nil {
		t.Fatalf("RefreshAndWait() error = %v", err)
	}
	r := openEvents(t, newController(e), "?streams=aqi")

	event, data := readEvent(t, r)
	if event != "snapshot" {
		t.Fatalf("first event = %q; want snapshot", event)
	}
	var snap engine.State
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.AQI != "AQI: 9" {
		t.Errorf("snapshot aqi = %q; want %q", snap.AQI, "AQI: 9")
	}

	if _, err := e.SetMode(context.Background(), conditions.ModeChina); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	event, data = readEvent(t, r)
	if event != "update" {
		t.Fatalf("event = %q; want update", event)
	}
	var u engine.Update
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if u.State.AQI != "AQI: 3" {
		t.Errorf("update aqi = %q; want %q", u.State.AQI, "AQI: 3")
	}
}

func Test_handleEvents_Heartbeat(t *testing.T) {
	ctrl := newController(startEngine(t, airvisual.SampleSource{}))
	ctrl.heartbeat = 10 * time.Millisecond
	r := openEvents(t, ctrl, "")

	if event, _ := readEvent(t, r); event != "snapshot" {
		t.Fatalf("first event = %q; want snapshot", event)
	}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.HasPrefix(line, ": ping") {
			return
		}
	}
}

func Test_handleEvents_InvalidStreams(t *testing.T) {
	ctrl := newController(startEngine(t, airvisual.SampleSource{}))
	rec := httptest.NewRecorder()
	ctrl.handleEvents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events?streams=aqi,nope", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
	}
}
