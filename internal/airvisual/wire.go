package airvisual

import (
	"encoding/json"
	"errors"
	"fmt"

	"breather/internal/conditions"
)

const statusSuccess = "success"

// envelope is the outer AirVisual v2 body: {"status": "...", "data": {...}}.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type failureData struct {
	Message string `json:"message"`
}

type nearestCityData struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Current struct {
		Weather   weatherData   `json:"weather"`
		Pollution pollutionData `json:"pollution"`
		Asthma    *asthmaData   `json:"asthma,omitempty"`
	} `json:"current"`
}

type weatherData struct {
	TS string  `json:"ts"`
	IC string  `json:"ic"`
	TP int     `json:"tp"`
	PR int     `json:"pr"`
	HU int     `json:"hu"`
	WS float64 `json:"ws"`
	WD int     `json:"wd"`
}

type pollutionData struct {
	TS     string `json:"ts"`
	AQIUS  int    `json:"aqius"`
	MainUS string `json:"mainus"`
	AQICN  int    `json:"aqicn"`
	MainCN string `json:"maincn"`
}

type asthmaData struct {
	Risk        string `json:"risk"`
	Probability int    `json:"probability"`
}

// failureMessage extracts data.message from an error body, if there is one.
func failureMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 {
		return ""
	}
	var f failureData
	if err := json.Unmarshal(env.Data, &f); err != nil {
		return ""
	}
	return f.Message
}

func decodeNearestCity(body []byte) (conditions.CityConditions, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return conditions.CityConditions{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status != statusSuccess {
		msg := failureMessage(body)
		if msg == "" {
			msg = "no message"
		}
		return conditions.CityConditions{}, fmt.Errorf("api status %q: %s", env.Status, msg)
	}
	if len(env.Data) == 0 {
		return conditions.CityConditions{}, errors.New("response has no data")
	}

	var d nearestCityData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return conditions.CityConditions{}, fmt.Errorf("decode nearest_city data: %w", err)
	}

	c := conditions.CityConditions{
		City: d.City,
		Weather: conditions.Weather{
			Timestamp:     d.Current.Weather.TS,
			IconCode:      d.Current.Weather.IC,
			Temperature:   d.Current.Weather.TP,
			Humidity:      d.Current.Weather.HU,
			Pressure:      d.Current.Weather.PR,
			WindSpeed:     d.Current.Weather.WS,
			WindDirection: d.Current.Weather.WD,
		},
		Pollution: conditions.Pollution{
			Timestamp:          d.Current.Pollution.TS,
			AQIUS:              d.Current.Pollution.AQIUS,
			MainPollutantUS:    d.Current.Pollution.MainUS,
			AQIChina:           d.Current.Pollution.AQICN,
			MainPollutantChina: d.Current.Pollution.MainCN,
		},
	}
	if a := d.Current.Asthma; a != nil {
		c.Asthma = conditions.Asthma{Risk: a.Risk, Probability: a.Probability}
	}
	return c, nil
}
