package models

// UserStats summarizes a user's terminal-result applications.
// EventWinRate is a percentage string ("NN.N%"); it is "0%" when the user has
// no decided applications, so there is never a division by zero.
type UserStats struct {
	TotalApplications int    `json:"totalApplications"`
	WonEvents         int    `json:"wonEvents"`
	LostEvents        int    `json:"lostEvents"`
	EventWinRate      string `json:"eventWinRate"`
}

// SiteStats is a per-site win-rate aggregation over decided applications
type SiteStats struct {
	Site    string `json:"site"`
	Total   int    `json:"total"`
	Won     int    `json:"won"`
	WinRate string `json:"winRate"`
}

// ProfitEvent is one application with positive recorded resale profit
type ProfitEvent struct {
	EventTitle string  `json:"eventTitle"`
	Site       string  `json:"site"`
	Profit     float64 `json:"profit"`
}
