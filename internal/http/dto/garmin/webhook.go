package garmin

// SleepEntry es un sleep summary crudo tal como lo entrega el proveedor.
// Los campos de duración vienen en segundos.
type SleepEntry struct {
	UserID                      string  `json:"userId"`
	SummaryID                   string  `json:"summaryId"`
	CalendarDate                string  `json:"calendarDate"`
	StartTimeInSeconds          int64   `json:"startTimeInSeconds"`
	StartTimeOffsetInSeconds    int64   `json:"startTimeOffsetInSeconds"`
	DurationInSeconds           float64 `json:"durationInSeconds"`
	DeepSleepDurationInSeconds  float64 `json:"deepSleepDurationInSeconds"`
	LightSleepDurationInSeconds float64 `json:"lightSleepDurationInSeconds"`
	RemSleepInSeconds           float64 `json:"remSleepInSeconds"`
	AwakeDurationInSeconds      float64 `json:"awakeDurationInSeconds"`
}

// DailyEntry es un daily summary crudo del proveedor.
type DailyEntry struct {
	UserID                  string  `json:"userId"`
	SummaryID               string  `json:"summaryId"`
	CalendarDate            string  `json:"calendarDate"`
	Steps                   int64   `json:"steps"`
	DistanceInMeters        float64 `json:"distanceInMeters"`
	ActiveTimeInSeconds     float64 `json:"activeTimeInSeconds"`
	FloorsClimbed           int64   `json:"floorsClimbed"`
	AverageStressLevel      int64   `json:"averageStressLevel"`
	MaxStressLevel          int64   `json:"maxStressLevel"`
	StressDurationInSeconds float64 `json:"stressDurationInSeconds"`
}

// WebhookResult resume el procesamiento de una entrega.
type WebhookResult struct {
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
