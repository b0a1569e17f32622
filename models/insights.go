package models

// AdherenceReport is the per-capsule adherence classification surfaced by
// the insights endpoints
type AdherenceReport struct {
	CapsuleID       string  `json:"capsuleID"`
	Name            string  `json:"name"`
	Pattern         string  `json:"pattern"`
	AvgDelayMinutes int     `json:"avgDelayMinutes"`
	StdDevMinutes   float64 `json:"stdDevMinutes"`
	Consistency     string  `json:"consistency"`
	TakenCount      int     `json:"takenCount"`
}

// Recommendation is a prioritized refill/adherence suggestion
type Recommendation struct {
	CapsuleID string `json:"capsuleID"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Message   string `json:"message"`
	Action    string `json:"action"`
}

// RecommendationsResponse wraps the sorted recommendation list
type RecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// AdherenceResponse wraps the per-capsule adherence reports
type AdherenceResponse struct {
	Reports []AdherenceReport `json:"reports"`
}
