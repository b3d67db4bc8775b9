package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"key": "value"}
		WriteJSON(w, http.StatusOK, body)

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"foo": "bar"}
		WriteJSON(w, http.StatusCreated, body)

		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["foo"] != "bar" {
			t.Errorf("body[foo] = %q; want bar", got["foo"])
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	status := http.StatusBadRequest
	msg := "invalid input"
	WriteError(w, status, msg)

	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
	}
	if w.Code != status {
		t.Errorf("Code = %d; want %d", w.Code, status)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["error"] != http.StatusText(status) {
		t.Errorf("error = %q; want %q", got["error"], http.StatusText(status))
	}
	if got["message"] != msg {
		t.Errorf("message = %q; want %q", got["message"], msg)
	}
}

func TestReadJSON(t *testing.T) {
	type body struct {
		Mode string `json:"mode"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
		wantEOF bool
	}{
		{name: "valid", body: `{"mode":"china"}`, want: "china"},
		{name: "empty body", body: "", wantErr: true, wantEOF: true},
		{name: "malformed", body: `{"mode":`, wantErr: true},
		{name: "unknown field", body: `{"mode":"us","extra":1}`, wantErr: true},
		{name: "wrong type", body: `{"mode":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			var got body
			err := ReadJSON(req, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadJSON() error = %v; wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, io.EOF) != tt.wantEOF {
				t.Errorf("errors.Is(err, io.EOF) = %v; want %v", errors.Is(err, io.EOF), tt.wantEOF)
			}
			if !tt.wantErr && got.Mode != tt.want {
				t.Errorf("Mode = %q; want %q", got.Mode, tt.want)
			}
		})
	}
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEvent(&buf, "update", map[string]int{"seq": 3}); err != nil {
		t.Fatalf("WriteEvent() error = %v", err)
	}

	want := "event: update\ndata: {\"seq\":3}\n\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteEvent() wrote %q; want %q", got, want)
	}
}

func TestWriteEvent_UnmarshalableValue(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEvent(&buf, "update", make(chan int)); err == nil {
		t.Fatal("WriteEvent() error = nil; want non-nil")
	}
	if buf.Len() != 0 {
		t.Errorf("WriteEvent() wrote %q on error; want nothing", buf.String())
	}
}
