// Package display turns a conditions snapshot and a display mode into the
// strings, colors and angle the presentation layer shows.
package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"breather/internal/conditions"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const placeholder = "..."

// View is the full set of display-ready values for one snapshot.
type View struct {
	City                    string  `json:"city"`
	WeatherIcon             string  `json:"weatherIcon"`
	Temperature             string  `json:"temperature"`
	TemperatureColor        Color   `json:"temperatureColor"`
	Humidity                string  `json:"humidity"`
	Pressure                string  `json:"pressure"`
	WindSpeed               string  `json:"windSpeed"`
	WindDirection           float64 `json:"windDirection"` // radians
	AirQuality              string  `json:"airQuality"`
	AirQualityColor         Color   `json:"airQualityColor"`
	AQI                     string  `json:"aqi"`
	MainPollutant           string  `json:"mainPollutant"`
	MainPollutantSubscripts []int   `json:"mainPollutantSubscripts"`
	AsthmaRisk              string  `json:"asthmaRisk"`
	AsthmaRiskColor         Color   `json:"asthmaRiskColor"`
	AsthmaProbability       string  `json:"asthmaProbability"`
}

// Placeholder is shown before the first successful fetch.
func Placeholder() View {
	return View{
		City:                    placeholder,
		WeatherIcon:             iconUnknown,
		Temperature:             placeholder + "℃",
		TemperatureColor:        ColorBlack,
		Humidity:                "Humidity: " + placeholder + "%",
		Pressure:                "Pressure: " + placeholder + " hPa",
		WindSpeed:               "Wind: " + placeholder + " m/s",
		WindDirection:           0,
		AirQuality:              placeholder,
		AirQualityColor:         ColorBlack,
		AQI:                     "AQI: " + placeholder,
		MainPollutant:           "Main pollutant: " + placeholder,
		MainPollutantSubscripts: []int{},
		AsthmaRisk:              placeholder,
		AsthmaRiskColor:         ColorBlack,
		AsthmaProbability:       "Probability: " + placeholder + "%",
	}
}

// Compute derives every field of c for mode.
func (b Bands) Compute(c conditions.CityConditions, mode conditions.DisplayMode) View {
	v := View{
		City:              c.City,
		WeatherIcon:       IconFor(c.Weather.IconCode),
		Temperature:       TemperatureText(c.Weather.Temperature),
		TemperatureColor:  b.TemperatureColor(c.Weather.Temperature),
		Humidity:          HumidityText(c.Weather.Humidity),
		Pressure:          PressureText(c.Weather.Pressure),
		WindSpeed:         WindSpeedText(c.Weather.WindSpeed),
		WindDirection:     WindAngle(c.Weather.WindDirection),
		AsthmaRisk:        AsthmaRiskText(c.Asthma.Risk),
		AsthmaRiskColor:   b.AsthmaRiskColor(c.Asthma.Risk),
		AsthmaProbability: AsthmaProbabilityText(c.Asthma.Probability),
	}
	return b.ApplyMode(v, c, mode)
}

// ApplyMode recomputes only the fields that depend on the display mode.
func (b Bands) ApplyMode(v View, c conditions.CityConditions, mode conditions.DisplayMode) View {
	aqi := c.Pollution.AQI(mode)
	v.AirQuality = b.AirQualityText(aqi)
	v.AirQualityColor = b.AirQualityColor(aqi)
	v.AQI = AQIText(aqi)
	v.MainPollutant = MainPollutantText(c.Pollution.MainPollutant(mode))
	v.MainPollutantSubscripts = SubscriptIndices(v.MainPollutant)
	return v
}

func TemperatureText(celsius int) string {
	return fmt.Sprintf("%d℃", celsius)
}

func HumidityText(pct int) string {
	return fmt.Sprintf("Humidity: %d%%", pct)
}

func PressureText(hpa int) string {
	return fmt.Sprintf("Pressure: %d hPa", hpa)
}

// WindSpeedText always prints at least one decimal: 9.8 -> "9.8", 10 -> "10.0".
func WindSpeedText(mps float64) string {
	s := strconv.FormatFloat(mps, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return "Wind: " + s + " m/s"
}

// WindAngle converts compass degrees to radians.
func WindAngle(degrees int) float64 {
	return float64(degrees) * math.Pi / 180
}

func AQIText(aqi int) string {
	return fmt.Sprintf("AQI: %d", aqi)
}

var pollutantNames = map[string]string{
	"p2": "PM2.5",
	"p1": "PM10",
	"o3": "O3",
	"n2": "NO2",
	"s2": "SO2",
	"co": "CO",
}

// PollutantName maps an AirVisual pollutant code to its common name.
// Unknown codes are returned unchanged.
func PollutantName(code string) string {
	if name, ok := pollutantNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

func MainPollutantText(code string) string {
	return "Main pollutant: " + PollutantName(code)
}

// SubscriptIndices returns the rune positions of decimal digits in text,
// which the presentation layer renders as subscripts.
func SubscriptIndices(text string) []int {
	indices := []int{}
	i := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			indices = append(indices, i)
		}
		i++
	}
	return indices
}

// AsthmaRiskText capitalizes every word of the reported risk.
func AsthmaRiskText(risk string) string {
	return cases.Title(language.Und).String(risk)
}

func AsthmaProbabilityText(pct int) string {
	return fmt.Sprintf("Probability: %d%%", pct)
}
