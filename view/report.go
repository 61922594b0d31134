package view

import "time"

type QualityReport struct {
	FacilityId       string           `json:"facilityId"`
	FacilityName     string           `json:"facilityName,omitempty"`
	PeriodFrom       time.Time        `json:"periodFrom"`
	PeriodTo         time.Time        `json:"periodTo"`
	EvaluationCount  int              `json:"evaluationCount"`
	OverallScore     ScoreResult      `json:"overallScore"`
	BandDistribution map[Band]int     `json:"bandDistribution"`
	DomainAverages   []DomainAverage  `json:"domainAverages"`
	WorstChecks      []CheckShortfall `json:"worstChecks"`
	System           SystemSnapshot   `json:"system"`
}

type DomainAverage struct {
	Domain            ComplianceDomain `json:"domain"`
	AveragePercentage int              `json:"averagePercentage"`
	Band              Band             `json:"band"`
	EvaluationCount   int              `json:"evaluationCount"`
}

// CheckShortfall names a check with a low satisfaction rate across evaluations.
type CheckShortfall struct {
	CheckId          string  `json:"checkId"`
	Label            string  `json:"label"`
	SatisfactionRate float64 `json:"satisfactionRate"`
	Occurrences      int     `json:"occurrences"`
}

// SystemSnapshot is a typed snapshot of service health taken at report time.
// It is produced by an injected probe, never read from ambient globals.
type SystemSnapshot struct {
	DbHealthy     bool      `json:"dbHealthy"`
	CacheHealthy  bool      `json:"cacheHealthy"`
	ExecutorId    string    `json:"executorId"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	TakenAt       time.Time `json:"takenAt"`
}
