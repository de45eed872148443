package domain

// DayWeather is the daily summary shown next to a sprint day.
// Max and Min are whole degrees Celsius.
type DayWeather struct {
	Date      string `json:"date"`
	Condition string `json:"condition"`
	Max       int    `json:"max"`
	Min       int    `json:"min"`
}
