package domain

// UsageSnapshot is derived on demand from the interaction log; it is never
// stored as its own record.
type UsageSnapshot struct {
	DailyRequests   int           `json:"dailyRequests"`
	DailyLimit      int           `json:"dailyLimit"`
	DailyCost       float64       `json:"dailyCost"`
	DailyAllowed    bool          `json:"dailyAllowed"`
	SessionRequests int           `json:"sessionRequests"`
	SessionLimit    int           `json:"sessionLimit"`
	SessionAllowed  bool          `json:"sessionAllowed"`
	StageUsage      map[Stage]int `json:"stageUsageByStage"`
	StageLimit      int           `json:"stageLimit"`
}

// Allowed reports whether both the daily and the session ceiling permit
// another request.
func (u UsageSnapshot) Allowed() bool {
	return u.DailyAllowed && u.SessionAllowed
}

// CanUseStage reports whether the per-stage ceiling permits another request
// for stage. It is independent of Allowed.
func (u UsageSnapshot) CanUseStage(stage Stage) bool {
	return u.StageUsage[stage] < u.StageLimit
}

// DailyUsage aggregates a user's interactions since a point in time.
type DailyUsage struct {
	Requests int
	CostUSD  float64
}

// SessionUsage aggregates a session's interactions.
type SessionUsage struct {
	Requests int
	ByStage  map[Stage]int
}
