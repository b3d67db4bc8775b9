package display

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is a symbolic color identifier; mapping it to pixels is up to the
// presentation layer.
type Color string

const (
	ColorBlack     Color = "black"
	ColorGray      Color = "gray"
	ColorIndigo    Color = "indigo"
	ColorBlue      Color = "blue"
	ColorLightBlue Color = "light-blue"
	ColorGreen     Color = "green"
	ColorYellow    Color = "yellow"
	ColorOrange    Color = "orange"
	ColorRed       Color = "red"
	ColorPurple    Color = "purple"
	ColorMaroon    Color = "maroon"
)

// AQIBand covers index values up to and including Max.
type AQIBand struct {
	Max   int    `yaml:"max"`
	Label string `yaml:"label"`
	Color Color  `yaml:"color"`
}

// TemperatureBand covers temperatures (℃) up to and including Max.
type TemperatureBand struct {
	Max   int   `yaml:"max"`
	Color Color `yaml:"color"`
}

// Bands holds the lookup tables behind every color and label the engine
// derives. Band slices are ordered by ascending Max; values above the last
// Max fall into the last band, so every lookup is total.
type Bands struct {
	AQI         []AQIBand         `yaml:"aqi"`
	Temperature []TemperatureBand `yaml:"temperature"`
	// AsthmaRisk is keyed by lower-case risk category.
	AsthmaRisk        map[string]Color `yaml:"asthma_risk"`
	AsthmaRiskUnknown Color            `yaml:"asthma_risk_unknown"`
}

// DefaultBands returns the standard US EPA AQI bands and a cold-to-hot
// temperature scale.
func DefaultBands() Bands {
	return Bands{
		AQI: []AQIBand{
			{Max: 50, Label: "Good", Color: ColorGreen},
			{Max: 100, Label: "Moderate", Color: ColorYellow},
			{Max: 150, Label: "Unhealthy for Sensitive Groups", Color: ColorOrange},
			{Max: 200, Label: "Unhealthy", Color: ColorRed},
			{Max: 300, Label: "Very Unhealthy", Color: ColorPurple},
			{Max: 500, Label: "Hazardous", Color: ColorMaroon},
		},
		Temperature: []TemperatureBand{
			{Max: -10, Color: ColorIndigo},
			{Max: 0, Color: ColorBlue},
			{Max: 10, Color: ColorLightBlue},
			{Max: 20, Color: ColorGreen},
			{Max: 30, Color: ColorOrange},
			{Max: 40, Color: ColorRed},
		},
		AsthmaRisk: map[string]Color{
			"low":    ColorGreen,
			"medium": ColorYellow,
			"high":   ColorRed,
		},
		AsthmaRiskUnknown: ColorGray,
	}
}

// LoadBands reads band tables from a YAML file. Sections missing from the
// file keep their defaults.
func LoadBands(path string) (Bands, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bands{}, fmt.Errorf("read bands file %s: %w", path, err)
	}
	return ParseBands(data)
}

func ParseBands(data []byte) (Bands, error) {
	var in Bands
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Bands{}, fmt.Errorf("parse bands: %w", err)
	}

	b := DefaultBands()
	if in.AQI != nil {
		b.AQI = in.AQI
	}
	if in.Temperature != nil {
		b.Temperature = in.Temperature
	}
	if in.AsthmaRisk != nil {
		b.AsthmaRisk = make(map[string]Color, len(in.AsthmaRisk))
		for k, v := range in.AsthmaRisk {
			b.AsthmaRisk[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	if in.AsthmaRiskUnknown != "" {
		b.AsthmaRiskUnknown = in.AsthmaRiskUnknown
	}

	if err := b.Validate(); err != nil {
		return Bands{}, err
	}
	return b, nil
}

func (b Bands) Validate() error {
	if len(b.AQI) == 0 {
		return errors.New("bands: aqi table is empty")
	}
	for i := 1; i < len(b.AQI); i++ {
		if b.AQI[i].Max <= b.AQI[i-1].Max {
			return fmt.Errorf("bands: aqi max values must be strictly ascending (index %d: %d <= %d)", i, b.AQI[i].Max, b.AQI[i-1].Max)
		}
	}
	if len(b.Temperature) == 0 {
		return errors.New("bands: temperature table is empty")
	}
	for i := 1; i < len(b.Temperature); i++ {
		if b.Temperature[i].Max <= b.Temperature[i-1].Max {
			return fmt.Errorf("bands: temperature max values must be strictly ascending (index %d: %d <= %d)", i, b.Temperature[i].Max, b.Temperature[i-1].Max)
		}
	}
	return nil
}

func (b Bands) aqiBand(value int) AQIBand {
	for _, band := range b.AQI {
		if value <= band.Max {
			return band
		}
	}
	return b.AQI[len(b.AQI)-1]
}

// TemperatureColor is total over int: values above every Max take the last
// band's color.
func (b Bands) TemperatureColor(celsius int) Color {
	for _, band := range b.Temperature {
		if celsius <= band.Max {
			return band.Color
		}
	}
	return b.Temperature[len(b.Temperature)-1].Color
}

func (b Bands) AirQualityText(aqi int) string {
	return b.aqiBand(aqi).Label
}

func (b Bands) AirQualityColor(aqi int) Color {
	return b.aqiBand(aqi).Color
}

func (b Bands) AsthmaRiskColor(risk string) Color {
	if c, ok := b.AsthmaRisk[strings.ToLower(strings.TrimSpace(risk))]; ok {
		return c
	}
	return b.AsthmaRiskUnknown
}
