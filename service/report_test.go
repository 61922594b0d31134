package service

import (
	"context"
	"testing"
	"time"

	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvaluationRepository struct {
	evaluations []entity.Evaluation
	outcomes    []entity.CheckOutcome
}

func (s *stubEvaluationRepository) SaveEvaluation(ctx context.Context, ent entity.Evaluation, outcomes []entity.CheckOutcome) error {
	s.evaluations = append(s.evaluations, ent)
	s.outcomes = append(s.outcomes, outcomes...)
	return nil
}

func (s *stubEvaluationRepository) GetEvaluationById(ctx context.Context, id string) (*entity.Evaluation, error) {
	for _, ev := range s.evaluations {
		if ev.Id == id {
			return &ev, nil
		}
	}
	return nil, nil
}

func (s *stubEvaluationRepository) GetLatestEvaluation(ctx context.Context, facilityId, episodeId, rulesetId string) (*entity.Evaluation, error) {
	var latest *entity.Evaluation
	for i, ev := range s.evaluations {
		if ev.FacilityId == facilityId && ev.EpisodeId == episodeId && ev.RulesetId == rulesetId {
			if latest == nil || ev.EvaluatedAt.After(latest.EvaluatedAt) {
				latest = &s.evaluations[i]
			}
		}
	}
	return latest, nil
}

func (s *stubEvaluationRepository) ListFacilityEvaluations(ctx context.Context, facilityId string, limit, offset int) ([]entity.Evaluation, error) {
	return s.evaluations, nil
}

func (s *stubEvaluationRepository) ListFacilityEvaluationsSince(ctx context.Context, facilityId string, since time.Time) ([]entity.Evaluation, error) {
	return s.evaluations, nil
}

func (s *stubEvaluationRepository) ListCheckOutcomesSince(ctx context.Context, facilityId string, since time.Time) ([]entity.CheckOutcome, error) {
	return s.outcomes, nil
}

func (s *stubEvaluationRepository) ListEpisodeCheckOutcomes(ctx context.Context, episodeId string) ([]entity.CheckOutcome, error) {
	return s.outcomes, nil
}

func (s *stubEvaluationRepository) DeleteEvaluationsBefore(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

type stubSystemProbe struct{}

func (s stubSystemProbe) Snapshot() view.SystemSnapshot {
	return view.SystemSnapshot{DbHealthy: true, CacheHealthy: true, ExecutorId: "test-executor", TakenAt: time.Now()}
}

func TestQualityReportEmptyPeriod(t *testing.T) {
	svc := NewQualityReportService(&stubEvaluationRepository{}, stubSystemProbe{}, &stubEHRClient{}, view.DefaultBandThresholds())

	report, err := svc.GetQualityReport(context.Background(), "fac-1", 30)
	require.NoError(t, err)

	assert.Equal(t, 0, report.EvaluationCount)
	assert.Equal(t, 0, report.OverallScore.Percentage)
	assert.Equal(t, view.BandNeedsImprovement, report.OverallScore.Band)
	assert.Empty(t, report.WorstChecks)
	assert.Empty(t, report.DomainAverages)
	assert.True(t, report.System.DbHealthy)
}

func TestQualityReportAggregation(t *testing.T) {
	repo := &stubEvaluationRepository{
		evaluations: []entity.Evaluation{
			{Id: "1", Domain: view.PatientSafetyDomain, Percentage: 100, Band: view.BandExcellent, SatisfiedCount: 4, TotalCount: 4},
			{Id: "2", Domain: view.PatientSafetyDomain, Percentage: 80, Band: view.BandAcceptable, SatisfiedCount: 4, TotalCount: 5},
			{Id: "3", Domain: view.InfectionControlDomain, Percentage: 90, Band: view.BandGood, SatisfiedCount: 9, TotalCount: 10},
		},
	}
	svc := NewQualityReportService(repo, stubSystemProbe{}, &stubEHRClient{facility: &view.Facility{Id: "fac-1", Name: "Sunrise Home Care"}}, view.DefaultBandThresholds())

	report, err := svc.GetQualityReport(context.Background(), "fac-1", 30)
	require.NoError(t, err)

	assert.Equal(t, "Sunrise Home Care", report.FacilityName)
	assert.Equal(t, 3, report.EvaluationCount)
	assert.Equal(t, 90, report.OverallScore.Percentage)
	assert.Equal(t, view.BandGood, report.OverallScore.Band)
	assert.Equal(t, 17, report.OverallScore.SatisfiedCount)
	assert.Equal(t, 19, report.OverallScore.TotalCount)

	assert.Equal(t, 1, report.BandDistribution[view.BandExcellent])
	assert.Equal(t, 1, report.BandDistribution[view.BandGood])
	assert.Equal(t, 1, report.BandDistribution[view.BandAcceptable])

	require.Len(t, report.DomainAverages, 2)
	assert.Equal(t, view.PatientSafetyDomain, report.DomainAverages[0].Domain)
	assert.Equal(t, 90, report.DomainAverages[0].AveragePercentage)
	assert.Equal(t, 2, report.DomainAverages[0].EvaluationCount)
	assert.Equal(t, view.InfectionControlDomain, report.DomainAverages[1].Domain)
	assert.Equal(t, 90, report.DomainAverages[1].AveragePercentage)
}

func TestAggregateShortfalls(t *testing.T) {
	outcomes := []entity.CheckOutcome{
		{EvaluationId: "1", CheckId: "hand_hygiene", Label: "Hand hygiene", State: view.CheckStateSatisfied},
		{EvaluationId: "2", CheckId: "hand_hygiene", Label: "Hand hygiene", State: view.CheckStateUnsatisfied},
		{EvaluationId: "1", CheckId: "care_plan", Label: "Care plan signed", State: view.CheckStatePartial},
		{EvaluationId: "2", CheckId: "care_plan", Label: "Care plan signed", State: view.CheckStateUnsatisfied},
		{EvaluationId: "1", CheckId: "fall_risk", Label: "Fall risk assessed", State: view.CheckStateSatisfied},
	}

	shortfalls := aggregateShortfalls(outcomes)

	// fully satisfied checks are not shortfalls
	require.Len(t, shortfalls, 2)
	assert.Equal(t, "care_plan", shortfalls[0].CheckId)
	assert.Equal(t, 0.25, shortfalls[0].SatisfactionRate)
	assert.Equal(t, 2, shortfalls[0].Occurrences)
	assert.Equal(t, "hand_hygiene", shortfalls[1].CheckId)
	assert.Equal(t, 0.5, shortfalls[1].SatisfactionRate)
}
