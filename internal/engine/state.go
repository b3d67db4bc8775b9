package engine

import (
	"errors"
	"time"

	"breather/internal/airvisual"
	"breather/internal/conditions"
	"breather/internal/display"
)

// State is everything the presentation layer needs at one point in time.
type State struct {
	display.View

	Seq       uint64                 `json:"seq"`
	Mode      conditions.DisplayMode `json:"mode"`
	IsLoading bool                   `json:"isLoading"`
	LastError *ErrorInfo             `json:"lastError"`
	// Conditions is the snapshot the view was derived from; nil before the
	// first successful fetch.
	Conditions *conditions.CityConditions `json:"conditions,omitempty"`
	RefreshID  string                     `json:"refreshId,omitempty"`
	UpdatedAt  time.Time                  `json:"updatedAt"`

	// Err is the last fetch error as returned by the Fetcher.
	Err error `json:"-"`
}

// ErrorInfo is the serializable form of a fetch error.
type ErrorInfo struct {
	Kind    string    `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func newErrorInfo(err error, at time.Time) *ErrorInfo {
	info := &ErrorInfo{Kind: "unknown", Message: err.Error(), At: at}
	var fe *airvisual.FetchError
	if errors.As(err, &fe) {
		info.Kind = fe.Kind.String()
		info.Status = fe.Status
	}
	return info
}

// Update is delivered to subscribers each time streams are republished.
type Update struct {
	Changed []Stream `json:"changed"`
	State   State    `json:"state"`
}

// Touches reports whether u republished any of streams.
func (u Update) Touches(streams map[Stream]bool) bool {
	if len(streams) == 0 {
		return true
	}
	for _, st := range u.Changed {
		if streams[st] {
			return true
		}
	}
	return false
}
