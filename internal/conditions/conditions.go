package conditions

// Fixed location the app reports on (Brooklyn, New York).
const (
	DefaultLat = 40.676906
	DefaultLon = -73.942275
)

// CityConditions is one fetched snapshot. It is replaced wholesale on every
// successful fetch and never updated in place.
type CityConditions struct {
	City      string    `json:"city"`
	Weather   Weather   `json:"weather"`
	Pollution Pollution `json:"pollution"`
	Asthma    Asthma    `json:"asthma"`
}

type Weather struct {
	Timestamp     string  `json:"timestamp"`
	IconCode      string  `json:"iconCode"`
	Temperature   int     `json:"temperature"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection int     `json:"windDirection"` // degrees, 0-359
}

type Pollution struct {
	Timestamp          string `json:"timestamp"`
	AQIUS              int    `json:"aqiUS"`
	MainPollutantUS    string `json:"mainPollutantUS"`
	AQIChina           int    `json:"aqiChina"`
	MainPollutantChina string `json:"mainPollutantChina"`
}

// Asthma values are passed through as reported; Risk is usually one of
// low, medium or high and Probability a percentage.
type Asthma struct {
	Risk        string `json:"risk"`
	Probability int    `json:"probability"`
}

// AQI returns the air quality index of the standard selected by mode.
func (p Pollution) AQI(mode DisplayMode) int {
	if mode == ModeChina {
		return p.AQIChina
	}
	return p.AQIUS
}

// MainPollutant returns the pollutant code of the standard selected by mode.
func (p Pollution) MainPollutant(mode DisplayMode) string {
	if mode == ModeChina {
		return p.MainPollutantChina
	}
	return p.MainPollutantUS
}

// SampleData is a static New York snapshot used for demos and tests.
func SampleData() CityConditions {
	return CityConditions{
		City: "New York",
		Weather: Weather{
			Timestamp:     "2019-04-16T11:00:00.000Z",
			IconCode:      "01d",
			Temperature:   5,
			Humidity:      36,
			Pressure:      1015,
			WindSpeed:     9.8,
			WindDirection: 300,
		},
		Pollution: Pollution{
			Timestamp:          "2019-04-16T18:00:00.000Z",
			AQIUS:              9,
			MainPollutantUS:    "p2",
			AQIChina:           3,
			MainPollutantChina: "p2",
		},
		Asthma: Asthma{
			Risk:        "medium",
			Probability: 63,
		},
	}
}
