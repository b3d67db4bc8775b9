package conditions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DisplayMode selects which national AQI standard is surfaced.
type DisplayMode int

const (
	ModeUS DisplayMode = iota
	ModeChina
)

func (m DisplayMode) String() string {
	switch m {
	case ModeUS:
		return "us"
	case ModeChina:
		return "china"
	default:
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
}

// ParseDisplayMode accepts "us", "china" or the numeric forms "0" and "1".
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "0":
		return ModeUS, nil
	case "china", "cn", "1":
		return ModeChina, nil
	default:
		return ModeUS, fmt.Errorf("invalid display mode %q (allowed: us, china)", s)
	}
}

func (m DisplayMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *DisplayMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if numErr := json.Unmarshal(b, &n); numErr != nil {
			return fmt.Errorf("display mode: %w", err)
		}
		s = fmt.Sprint(n)
	}
	parsed, err := ParseDisplayMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// EnvDecode lets go-envconfig read a DisplayMode straight from the environment.
func (m *DisplayMode) EnvDecode(val string) error {
	parsed, err := ParseDisplayMode(val)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
