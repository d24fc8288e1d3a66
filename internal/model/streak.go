package model

// StreakState is the persisted completion streak.
type StreakState struct {
	// LastDoneISO is a YYYY-MM-DD calendar date, empty before the first completion.
	LastDoneISO string `json:"lastDoneISO"`
	Current     int    `json:"current"`
	Longest     int    `json:"longest"`
}
