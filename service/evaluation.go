package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/repository"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/view"
	"github.com/buraksezer/olric"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type EvaluationService interface {
	CreateEvaluation(ctx context.Context, req view.EvaluationRequest) (*view.EvaluationResult, error)
	GetEvaluation(ctx context.Context, id string) (*view.EvaluationResult, error)
	GetEpisodeEvaluation(ctx context.Context, facilityId, episodeId, rulesetId string) (*view.EvaluationResult, error)
	ListFacilityEvaluations(ctx context.Context, facilityId string, limit, page int) (*view.EvaluationList, error)
}

func NewEvaluationService(evaluationRepository repository.EvaluationRepository,
	rulesetRepository repository.RulesetRepository,
	op client.OlricProvider,
	thresholds view.BandThresholds) EvaluationService {
	return &evaluationServiceImpl{
		evaluationRepository: evaluationRepository,
		rulesetRepository:    rulesetRepository,
		op:                   op,
		thresholds:           thresholds,
	}
}

type evaluationServiceImpl struct {
	evaluationRepository repository.EvaluationRepository
	rulesetRepository    repository.RulesetRepository
	op                   client.OlricProvider
	thresholds           view.BandThresholds

	dmOnce      sync.Once
	resultsDMap *olric.DMap
}

const evaluationResultsDMapName = "evaluation-results"

func (e *evaluationServiceImpl) CreateEvaluation(ctx context.Context, req view.EvaluationRequest) (*view.EvaluationResult, error) {
	if req.FacilityId == "" {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "facilityId"},
		}
	}
	if len(req.Checks) > 0 && req.RulesetId != "" {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EvaluationConflict,
			Message: exception.EvaluationConflictMsg,
		}
	}

	var checks []view.Check
	var domain view.ComplianceDomain

	switch {
	case req.RulesetId != "":
		ent, err := e.rulesetRepository.GetRulesetById(ctx, req.RulesetId)
		if err != nil {
			return nil, err
		}
		if ent == nil {
			return nil, &exception.CustomError{
				Status:  http.StatusNotFound,
				Code:    exception.EntityNotFound,
				Message: exception.EntityNotFoundMsg,
				Params:  map[string]interface{}{"entity": "ruleset", "id": req.RulesetId},
			}
		}
		file, err := ParseRulesetFile(ent.Data)
		if err != nil {
			return nil, fmt.Errorf("ruleset %s is corrupted: %w", ent.Id, err)
		}
		checks = ApplyCheckStates(file.Checks, req.CheckStates)
		domain = ent.Domain
	case len(req.Checks) > 0:
		for _, check := range req.Checks {
			if !view.ValidCheckState(check.State) {
				return nil, &exception.CustomError{
					Status:  http.StatusBadRequest,
					Code:    exception.InvalidParameterValue,
					Message: exception.InvalidParameterValueMsg,
					Params:  map[string]interface{}{"param": "state", "value": check.State},
				}
			}
		}
		checks = req.Checks
	default:
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "rulesetId or checks"},
		}
	}

	score := EvaluateChecks(checks, e.thresholds)
	categoryScores := EvaluateByCategory(checks, e.thresholds)

	ent := entity.Evaluation{
		Id:             uuid.NewString(),
		FacilityId:     req.FacilityId,
		EpisodeId:      req.EpisodeId,
		RulesetId:      req.RulesetId,
		Domain:         domain,
		Percentage:     score.Percentage,
		Band:           score.Band,
		SatisfiedCount: score.SatisfiedCount,
		TotalCount:     score.TotalCount,
		Summary:        makeEvaluationSummary(categoryScores),
		EvaluatedAt:    time.Now(),
		EvaluatedBy:    secctx.GetUserId(ctx),
	}

	outcomes := make([]entity.CheckOutcome, 0, len(checks))
	for _, check := range checks {
		outcomes = append(outcomes, entity.CheckOutcome{
			EvaluationId: ent.Id,
			CheckId:      check.Id,
			Label:        check.Label,
			Category:     check.Category,
			State:        check.State,
			Weight:       checkWeight(check),
		})
	}

	if err := e.evaluationRepository.SaveEvaluation(ctx, ent, outcomes); err != nil {
		return nil, err
	}

	result := entity.MakeEvaluationView(ent, categoryScores)
	e.cacheResult(result)

	log.Infof("Evaluation %s for facility %s scored %d%% (%s)", ent.Id, ent.FacilityId, score.Percentage, score.Band)
	return &result, nil
}

// ApplyCheckStates merges observed states into ruleset check definitions.
// Checks without a reported state count as unsatisfied.
func ApplyCheckStates(defs []view.RulesetCheck, states []view.CheckStateUpdate) []view.Check {
	stateById := make(map[string]view.CheckState, len(states))
	for _, update := range states {
		if view.ValidCheckState(update.State) {
			stateById[update.Id] = update.State
		}
	}

	checks := make([]view.Check, 0, len(defs))
	for _, def := range defs {
		state, ok := stateById[def.Id]
		if !ok {
			state = view.CheckStateUnsatisfied
		}
		checks = append(checks, view.Check{
			Id:       def.Id,
			Label:    def.Label,
			Category: def.Category,
			State:    state,
			Weight:   def.Weight,
		})
	}
	return checks
}

// GetEpisodeEvaluation returns the latest stored evaluation for the
// facility/episode/ruleset key, reading through the olric cache.
func (e *evaluationServiceImpl) GetEpisodeEvaluation(ctx context.Context, facilityId, episodeId, rulesetId string) (*view.EvaluationResult, error) {
	if cached := e.getCachedResult(facilityId, episodeId, rulesetId); cached != nil {
		return cached, nil
	}

	ent, err := e.evaluationRepository.GetLatestEvaluation(ctx, facilityId, episodeId, rulesetId)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, nil
	}

	result := entity.MakeEvaluationView(*ent, categoryScoresFromSummary(ent.Summary))
	e.cacheResult(result)
	return &result, nil
}

func (e *evaluationServiceImpl) GetEvaluation(ctx context.Context, id string) (*view.EvaluationResult, error) {
	ent, err := e.evaluationRepository.GetEvaluationById(ctx, id)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, nil
	}
	result := entity.MakeEvaluationView(*ent, categoryScoresFromSummary(ent.Summary))
	return &result, nil
}

func (e *evaluationServiceImpl) ListFacilityEvaluations(ctx context.Context, facilityId string, limit, page int) (*view.EvaluationList, error) {
	ents, err := e.evaluationRepository.ListFacilityEvaluations(ctx, facilityId, limit, page*limit)
	if err != nil {
		return nil, err
	}
	evaluations := make([]view.EvaluationResult, 0, len(ents))
	for _, ent := range ents {
		evaluations = append(evaluations, entity.MakeEvaluationView(ent, categoryScoresFromSummary(ent.Summary)))
	}
	return &view.EvaluationList{Evaluations: evaluations}, nil
}

func makeEvaluationSummary(categoryScores []view.CategoryScore) map[string]interface{} {
	data, err := json.Marshal(categoryScores)
	if err != nil {
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return map[string]interface{}{"categoryScores": raw}
}

func categoryScoresFromSummary(summary map[string]interface{}) []view.CategoryScore {
	if summary == nil {
		return nil
	}
	raw, ok := summary["categoryScores"]
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var scores []view.CategoryScore
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil
	}
	return scores
}

// getResultsDMap creates the dmap once, the service is shared between HTTP
// handlers and the record processor goroutines.
func (e *evaluationServiceImpl) getResultsDMap() *olric.DMap {
	e.dmOnce.Do(func() {
		if e.op == nil {
			return
		}
		dm, err := e.op.Get().NewDMap(evaluationResultsDMapName)
		if err != nil {
			log.Errorf("Failed to create DMap %s: %s", evaluationResultsDMapName, err.Error())
			return
		}
		e.resultsDMap = dm
	})
	return e.resultsDMap
}

func resultCacheKey(facilityId, episodeId, rulesetId string) string {
	return facilityId + "|" + episodeId + "|" + rulesetId
}

func (e *evaluationServiceImpl) cacheResult(result view.EvaluationResult) {
	dm := e.getResultsDMap()
	if dm == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := dm.Put(resultCacheKey(result.FacilityId, result.EpisodeId, result.RulesetId), data); err != nil {
		log.Warnf("Failed to cache evaluation result %s: %v", result.Id, err)
	}
}

func (e *evaluationServiceImpl) getCachedResult(facilityId, episodeId, rulesetId string) *view.EvaluationResult {
	dm := e.getResultsDMap()
	if dm == nil {
		return nil
	}

	value, err := dm.Get(resultCacheKey(facilityId, episodeId, rulesetId))
	if err != nil {
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		return nil
	}
	var result view.EvaluationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}
