package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRulesetRepository struct {
	rulesets    map[string]entity.Ruleset
	listPattern string
}

func (s *stubRulesetRepository) SaveRuleset(ctx context.Context, ent entity.Ruleset) error {
	if s.rulesets == nil {
		s.rulesets = map[string]entity.Ruleset{}
	}
	s.rulesets[ent.Id] = ent
	return nil
}

func (s *stubRulesetRepository) GetRulesetById(ctx context.Context, id string) (*entity.Ruleset, error) {
	if ent, ok := s.rulesets[id]; ok {
		return &ent, nil
	}
	return nil, nil
}

func (s *stubRulesetRepository) GetRulesetByChecksum(ctx context.Context, domain view.ComplianceDomain, checksum string) (*entity.Ruleset, error) {
	return nil, nil
}

func (s *stubRulesetRepository) GetActiveRuleset(ctx context.Context, domain view.ComplianceDomain) (*entity.Ruleset, error) {
	for _, ent := range s.rulesets {
		if ent.Domain == domain && ent.Status == view.RulesetStatusActive {
			return &ent, nil
		}
	}
	return nil, nil
}

func (s *stubRulesetRepository) ListRulesets(ctx context.Context, namePattern string) ([]entity.Ruleset, error) {
	s.listPattern = namePattern
	result := make([]entity.Ruleset, 0, len(s.rulesets))
	for _, ent := range s.rulesets {
		result = append(result, ent)
	}
	return result, nil
}

func (s *stubRulesetRepository) ActivateRuleset(ctx context.Context, id string, activatedBy string) error {
	return nil
}

func (s *stubRulesetRepository) GetActivationHistory(ctx context.Context, id string) ([]entity.RulesetActivationHistory, error) {
	return nil, nil
}

func (s *stubRulesetRepository) DeleteRuleset(ctx context.Context, id string) error {
	delete(s.rulesets, id)
	return nil
}

func makeRulesetData(t *testing.T, checks []view.RulesetCheck) []byte {
	data, err := json.Marshal(view.RulesetFile{Checks: checks})
	require.NoError(t, err)
	return data
}

func TestCreateEvaluationInlineChecks(t *testing.T) {
	evalRepo := &stubEvaluationRepository{}
	svc := NewEvaluationService(evalRepo, &stubRulesetRepository{}, nil, view.DefaultBandThresholds())

	result, err := svc.CreateEvaluation(context.Background(), view.EvaluationRequest{
		FacilityId: "fac-1",
		Checks: []view.Check{
			{Id: "a", Label: "first", State: view.CheckStateSatisfied},
			{Id: "b", Label: "second", State: view.CheckStateUnsatisfied},
			{Id: "c", Label: "third", State: view.CheckStatePartial, Weight: floatPtr(2)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, result.Score.Percentage)
	assert.Equal(t, view.BandNeedsImprovement, result.Score.Band)
	assert.Equal(t, 1, result.Score.SatisfiedCount)
	assert.Equal(t, 3, result.Score.TotalCount)

	require.Len(t, evalRepo.evaluations, 1)
	assert.Len(t, evalRepo.outcomes, 3)
}

func TestCreateEvaluationFromRuleset(t *testing.T) {
	rulesetRepo := &stubRulesetRepository{rulesets: map[string]entity.Ruleset{
		"rs-1": {
			Id:     "rs-1",
			Domain: view.InfectionControlDomain,
			Data: makeRulesetData(t, []view.RulesetCheck{
				{Id: "hand_hygiene", Label: "Hand hygiene", Category: "hygiene"},
				{Id: "ppe_available", Label: "PPE available", Category: "hygiene"},
			}),
		},
	}}
	svc := NewEvaluationService(&stubEvaluationRepository{}, rulesetRepo, nil, view.DefaultBandThresholds())

	result, err := svc.CreateEvaluation(context.Background(), view.EvaluationRequest{
		FacilityId: "fac-1",
		EpisodeId:  "ep-1",
		RulesetId:  "rs-1",
		CheckStates: []view.CheckStateUpdate{
			{Id: "hand_hygiene", State: view.CheckStateSatisfied},
		},
	})
	require.NoError(t, err)

	// unreported ppe_available counts as unsatisfied
	assert.Equal(t, 50, result.Score.Percentage)
	assert.Equal(t, view.InfectionControlDomain, result.Domain)
	require.Len(t, result.CategoryScores, 1)
	assert.Equal(t, "hygiene", result.CategoryScores[0].Category)
}

func TestCreateEvaluationMissingFacility(t *testing.T) {
	svc := NewEvaluationService(&stubEvaluationRepository{}, &stubRulesetRepository{}, nil, view.DefaultBandThresholds())

	_, err := svc.CreateEvaluation(context.Background(), view.EvaluationRequest{RulesetId: "rs-1"})
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.RequiredParamsMissing, customError.Code)
}

func TestCreateEvaluationRulesetAndChecksConflict(t *testing.T) {
	svc := NewEvaluationService(&stubEvaluationRepository{}, &stubRulesetRepository{}, nil, view.DefaultBandThresholds())

	_, err := svc.CreateEvaluation(context.Background(), view.EvaluationRequest{
		FacilityId: "fac-1",
		RulesetId:  "rs-1",
		Checks:     []view.Check{{Id: "a", Label: "first", State: view.CheckStateSatisfied}},
	})
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.EvaluationConflict, customError.Code)
}

func TestCreateEvaluationUnknownRuleset(t *testing.T) {
	svc := NewEvaluationService(&stubEvaluationRepository{}, &stubRulesetRepository{}, nil, view.DefaultBandThresholds())

	_, err := svc.CreateEvaluation(context.Background(), view.EvaluationRequest{
		FacilityId: "fac-1",
		RulesetId:  "missing",
	})
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.EntityNotFound, customError.Code)
}

func TestCreateEvaluationInvalidInlineState(t *testing.T) {
	svc := NewEvaluationService(&stubEvaluationRepository{}, &stubRulesetRepository{}, nil, view.DefaultBandThresholds())

	_, err := svc.CreateEvaluation(context.Background(), view.EvaluationRequest{
		FacilityId: "fac-1",
		Checks:     []view.Check{{Id: "a", Label: "first", State: "bogus"}},
	})
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.InvalidParameterValue, customError.Code)
}

func TestGetEpisodeEvaluationFallsThroughToRepository(t *testing.T) {
	evalRepo := &stubEvaluationRepository{}
	rulesetRepo := &stubRulesetRepository{rulesets: map[string]entity.Ruleset{
		"rs-1": {
			Id:     "rs-1",
			Domain: view.PatientSafetyDomain,
			Data: makeRulesetData(t, []view.RulesetCheck{
				{Id: "fall_risk", Label: "Fall risk assessed"},
			}),
		},
	}}
	svc := NewEvaluationService(evalRepo, rulesetRepo, nil, view.DefaultBandThresholds())

	created, err := svc.CreateEvaluation(context.Background(), view.EvaluationRequest{
		FacilityId:  "fac-1",
		EpisodeId:   "ep-1",
		RulesetId:   "rs-1",
		CheckStates: []view.CheckStateUpdate{{Id: "fall_risk", State: view.CheckStateSatisfied}},
	})
	require.NoError(t, err)

	result, err := svc.GetEpisodeEvaluation(context.Background(), "fac-1", "ep-1", "rs-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, created.Id, result.Id)
	assert.Equal(t, created.Score, result.Score)

	missing, err := svc.GetEpisodeEvaluation(context.Background(), "fac-1", "ep-2", "rs-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetEpisodeEvaluationConcurrent(t *testing.T) {
	svc := NewEvaluationService(&stubEvaluationRepository{}, &stubRulesetRepository{}, nil, view.DefaultBandThresholds())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.GetEpisodeEvaluation(context.Background(), "fac-1", "ep-1", "rs-1")
			assert.NoError(t, err)
			assert.Nil(t, result)
		}()
	}
	wg.Wait()
}

func TestEvaluationSummaryRoundTrip(t *testing.T) {
	scores := []view.CategoryScore{
		{Category: "hygiene", Score: view.ScoreResult{Percentage: 100, Band: view.BandExcellent, SatisfiedCount: 2, TotalCount: 2}},
		{Category: "documentation", Score: view.ScoreResult{Percentage: 50, Band: view.BandNeedsImprovement, SatisfiedCount: 1, TotalCount: 2}},
	}

	restored := categoryScoresFromSummary(makeEvaluationSummary(scores))

	assert.Equal(t, scores, restored)
}
