package engine

import (
	"fmt"
	"strings"
)

// Stream names one derived output.
type Stream string

const (
	StreamCity              Stream = "city"
	StreamWeatherIcon       Stream = "weather_icon"
	StreamTemperature       Stream = "temperature"
	StreamTemperatureColor  Stream = "temperature_color"
	StreamHumidity          Stream = "humidity"
	StreamPressure          Stream = "pressure"
	StreamWindSpeed         Stream = "wind_speed"
	StreamWindDirection     Stream = "wind_direction"
	StreamAirQuality        Stream = "air_quality"
	StreamAirQualityColor   Stream = "air_quality_color"
	StreamAQI               Stream = "aqi"
	StreamMainPollutant     Stream = "main_pollutant"
	StreamAsthmaRisk        Stream = "asthma_risk"
	StreamAsthmaRiskColor   Stream = "asthma_risk_color"
	StreamAsthmaProbability Stream = "asthma_probability"
	StreamIsLoading         Stream = "is_loading"
	StreamError             Stream = "error"
)

// DisplayStreams depend on the latest snapshot.
var DisplayStreams = []Stream{
	StreamCity,
	StreamWeatherIcon,
	StreamTemperature,
	StreamTemperatureColor,
	StreamHumidity,
	StreamPressure,
	StreamWindSpeed,
	StreamWindDirection,
	StreamAirQuality,
	StreamAirQualityColor,
	StreamAQI,
	StreamMainPollutant,
	StreamAsthmaRisk,
	StreamAsthmaRiskColor,
	StreamAsthmaProbability,
}

// ModeStreams are the display streams that also depend on the display mode.
var ModeStreams = []Stream{
	StreamAirQuality,
	StreamAirQualityColor,
	StreamAQI,
	StreamMainPollutant,
}

// AllStreams lists every output, display streams first.
func AllStreams() []Stream {
	all := make([]Stream, 0, len(DisplayStreams)+2)
	all = append(all, DisplayStreams...)
	return append(all, StreamIsLoading, StreamError)
}

func ParseStream(s string) (Stream, error) {
	want := Stream(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range AllStreams() {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stream %q", s)
}

// ParseStreams parses a comma separated list; empty input yields nil.
func ParseStreams(csv string) ([]Stream, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var out []Stream
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		st, err := ParseStream(part)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
