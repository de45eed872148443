package weather

import "sort"

// wmoConditions names the WMO weather interpretation codes used by open-meteo.
var wmoConditions = map[int]string{
	0:  "clear",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "fog",
	51: "drizzle",
	53: "drizzle",
	55: "heavy drizzle",
	56: "freezing drizzle",
	57: "freezing drizzle",
	61: "rain",
	63: "rain",
	65: "heavy rain",
	66: "freezing rain",
	67: "freezing rain",
	71: "snow",
	73: "snow",
	75: "heavy snow",
	77: "snow grains",
	80: "showers",
	81: "showers",
	82: "violent showers",
	85: "snow showers",
	86: "snow showers",
	95: "thunderstorm",
	96: "thunderstorm",
	99: "thunderstorm",
}

var wmoCodes = func() []int {
	codes := make([]int, 0, len(wmoConditions))
	for c := range wmoConditions {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}()

// Condition maps a WMO code to a condition name. Unlisted codes use the
// nearest lower listed code; negative codes are "unknown".
func Condition(code int) string {
	if name, ok := wmoConditions[code]; ok {
		return name
	}
	i := sort.SearchInts(wmoCodes, code)
	if i == 0 {
		return "unknown"
	}
	return wmoConditions[wmoCodes[i-1]]
}
