package service

import (
	"context"
	"fmt"
	"time"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/repository"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/utils"
	"github.com/carebridge/compliance-service/view"
	log "github.com/sirupsen/logrus"
)

type RecordTaskProcessor interface {
	Start()
}

func NewRecordTaskProcessor(recordRepo repository.RecordEvalTaskRepository,
	cl client.PlatformClient,
	evaluationService EvaluationService,
	executorId string) RecordTaskProcessor {
	return &recordTaskProcessorImpl{
		recordRepo:        recordRepo,
		cl:                cl,
		evaluationService: evaluationService,
		executorId:        executorId,
	}
}

type recordTaskProcessorImpl struct {
	recordRepo        repository.RecordEvalTaskRepository
	cl                client.PlatformClient
	evaluationService EvaluationService
	executorId        string
}

func (p *recordTaskProcessorImpl) Start() {
	utils.SafeAsync(func() {
		p.acquireFreeTasks()
	})
}

func (p *recordTaskProcessorImpl) acquireFreeTasks() {
	t := time.NewTicker(time.Second * 5)
	ctx := context.Background()
	for range t.C {
		task, err := p.recordRepo.FindFreeRecordTask(ctx, p.executorId)
		if err != nil {
			log.Errorf("Failed to find free record task: %s", err)
			continue
		}
		if task == nil {
			continue
		}

		start := time.Now()
		err = p.processRecordTask(ctx, task.Id, task.FacilityId, task.EpisodeId, task.RecordSlug, task.RulesetId)
		evalTimeMs := int(time.Since(start).Milliseconds())

		if err != nil {
			log.Errorf("Record evaluation task %s failed: %s", task.Id, err)
			if complErr := p.recordRepo.CompleteRecordTask(ctx, task.Id, view.StatusError, err.Error(), evalTimeMs); complErr != nil {
				log.Errorf("Failed to complete record task %s: %s", task.Id, complErr)
			}
			continue
		}
		if complErr := p.recordRepo.CompleteRecordTask(ctx, task.Id, view.StatusSuccess, "", evalTimeMs); complErr != nil {
			log.Errorf("Failed to complete record task %s: %s", task.Id, complErr)
		}
	}
}

func (p *recordTaskProcessorImpl) processRecordTask(ctx context.Context, taskId, facilityId, episodeId, recordSlug, rulesetId string) error {
	secC := secctx.CreateSystemContext()

	record, err := p.cl.GetRecordDetails(secC, facilityId, episodeId, recordSlug)
	if err != nil {
		return fmt.Errorf("failed to get record %s: %w", recordSlug, err)
	}
	if record == nil {
		return fmt.Errorf("record %s not found in episode %s", recordSlug, episodeId)
	}

	states := BuildCheckStatesFromRecord(*record)

	_, err = p.evaluationService.CreateEvaluation(secC, view.EvaluationRequest{
		FacilityId:  facilityId,
		EpisodeId:   episodeId,
		RulesetId:   rulesetId,
		CheckStates: states,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate record %s: %w", recordSlug, err)
	}

	log.Debugf("Record evaluation task %s processed record %s", taskId, recordSlug)
	return nil
}

// recordFieldStaleness is how old a documented field may be before it only
// counts as partially compliant.
const recordFieldStaleness = 30 * 24 * time.Hour

// BuildCheckStatesFromRecord derives check states from clinical record field
// completeness. A check id refers to a record field name: a present and fresh
// field satisfies the check, a required field that is stale is partial and
// unsatisfied when missing. Optional fields only count in favor, a missing or
// stale optional field is skipped instead of degrading the score.
func BuildCheckStatesFromRecord(record view.ClinicalRecord) []view.CheckStateUpdate {
	states := make([]view.CheckStateUpdate, 0, len(record.Fields))
	now := time.Now()

	for _, field := range record.Fields {
		if !field.Present {
			if !field.Required {
				continue
			}
			states = append(states, view.CheckStateUpdate{
				Id:    field.Name,
				State: view.CheckStateUnsatisfied,
			})
			continue
		}

		state := view.CheckStateSatisfied
		if field.UpdatedAt != nil && now.Sub(*field.UpdatedAt) > recordFieldStaleness {
			if !field.Required {
				continue
			}
			state = view.CheckStatePartial
		}
		states = append(states, view.CheckStateUpdate{
			Id:    field.Name,
			State: state,
		})
	}
	return states
}
