package domain

// Summary is the structured wrap-up the provider returns for a finished
// session.
type Summary struct {
	Title           string          `json:"title"`
	ProblemOverview string          `json:"problem_overview"`
	KeyInsights     []string        `json:"key_insights"`
	ActionPlan      SummaryPlan     `json:"action_plan"`
	Feedback        SummaryFeedback `json:"feedback"`
	Conclusion      string          `json:"conclusion"`
}

type SummaryPlan struct {
	PrimaryAction     string   `json:"primary_action"`
	SupportingActions []string `json:"supporting_actions"`
	Timeline          string   `json:"timeline"`
}

type SummaryFeedback struct {
	Strengths      string `json:"strengths"`
	AreasForGrowth string `json:"areas_for_growth"`
}
