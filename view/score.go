package view

type Band string

const (
	BandExcellent        Band = "excellent"
	BandGood             Band = "good"
	BandAcceptable       Band = "acceptable"
	BandNeedsImprovement Band = "needs_improvement"
)

// BandThresholds holds inclusive lower bounds for score bands.
// Values come from deployment configuration, not constants.
type BandThresholds struct {
	Excellent  int `json:"excellent"`
	Good       int `json:"good"`
	Acceptable int `json:"acceptable"`
}

func DefaultBandThresholds() BandThresholds {
	return BandThresholds{Excellent: 95, Good: 85, Acceptable: 70}
}

type ScoreResult struct {
	Percentage     int  `json:"percentage"`
	Band           Band `json:"band"`
	SatisfiedCount int  `json:"satisfiedCount"`
	TotalCount     int  `json:"totalCount"`
}

type CategoryScore struct {
	Category string      `json:"category"`
	Score    ScoreResult `json:"score"`
}
