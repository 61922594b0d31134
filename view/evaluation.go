package view

import "time"

// EvaluationRequest scores a set of compliance checks for a facility.
// Either RulesetId + CheckStates (states for a stored ruleset) or inline
// Checks must be provided, not both.
type EvaluationRequest struct {
	FacilityId  string             `json:"facilityId"`
	EpisodeId   string             `json:"episodeId,omitempty"`
	RulesetId   string             `json:"rulesetId,omitempty"`
	CheckStates []CheckStateUpdate `json:"checkStates,omitempty"`
	Checks      []Check            `json:"checks,omitempty"`
}

type EvaluationResult struct {
	Id             string           `json:"id"`
	FacilityId     string           `json:"facilityId"`
	EpisodeId      string           `json:"episodeId,omitempty"`
	RulesetId      string           `json:"rulesetId,omitempty"`
	Domain         ComplianceDomain `json:"domain,omitempty"`
	Score          ScoreResult      `json:"score"`
	CategoryScores []CategoryScore  `json:"categoryScores,omitempty"`
	EvaluatedAt    time.Time        `json:"evaluatedAt"`
	EvaluatedBy    string           `json:"evaluatedBy,omitempty"`
}

type EvaluationList struct {
	Evaluations []EvaluationResult `json:"evaluations"`
}
