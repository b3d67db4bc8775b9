package display

const iconUnknown = "weather-unknown"

// AirVisual icon codes: clear, few/scattered/broken clouds, showers, rain,
// thunderstorm, snow, mist. "d"/"n" is day/night.
var knownIcons = map[string]bool{
	"01d": true, "01n": true,
	"02d": true, "02n": true,
	"03d": true, "04d": true,
	"09d": true,
	"10d": true, "10n": true,
	"11d": true,
	"13d": true,
	"50d": true,
}

// IconFor returns the asset selector for an AirVisual icon code.
func IconFor(code string) string {
	if knownIcons[code] {
		return "weather-" + code
	}
	return iconUnknown
}
