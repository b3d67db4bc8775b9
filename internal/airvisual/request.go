package airvisual

import (
	"net/http"
	"strconv"
)

const DefaultBaseURL = "https://api.airvisual.com/v2"

// Route names one AirVisual endpoint.
type Route int

const (
	RouteNearestCity Route = iota
)

func (r Route) String() string {
	switch r {
	case RouteNearestCity:
		return "nearest_city"
	default:
		return "unknown"
	}
}

// Request is a fully described call: method, path relative to the base URL
// and query parameters.
type Request struct {
	Route  Route
	Method string
	Path   string
	Params map[string]string
}

// NearestCity describes GET /nearest_city?lat=..&lon=..&key=..
func NearestCity(lat, lon float64, key string) Request {
	return Request{
		Route:  RouteNearestCity,
		Method: http.MethodGet,
		Path:   "/nearest_city",
		Params: map[string]string{
			"lat": formatCoord(lat),
			"lon": formatCoord(lon),
			"key": key,
		},
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
