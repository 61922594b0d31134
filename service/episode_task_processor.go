package service

import (
	"context"
	"fmt"
	"time"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/repository"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/utils"
	"github.com/carebridge/compliance-service/view"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type EpisodeTaskProcessor interface {
	CreateTaskFromEvent(ctx context.Context, event view.EpisodeReadyEvent) (string, error)
	StartEpisodeEvalTask(taskId string) error
	GetEpisodeStatus(ctx context.Context, episodeId string) (*view.EpisodeStatus, error)
	GetRecordData(ctx context.Context, facilityId, episodeId, recordSlug string) ([]byte, error)
}

func NewEpisodeTaskProcessor(episodeRepo repository.EpisodeEvalTaskRepository,
	recordRepo repository.RecordEvalTaskRepository,
	evaluationRepo repository.EvaluationRepository,
	cl client.PlatformClient,
	rulesetService RulesetService,
	thresholds view.BandThresholds,
	executorId string) EpisodeTaskProcessor {
	svc := &episodeTaskProcessorImpl{
		episodeRepo:    episodeRepo,
		recordRepo:     recordRepo,
		evaluationRepo: evaluationRepo,
		cl:             cl,
		rulesetService: rulesetService,
		thresholds:     thresholds,
		executorId:     executorId,
	}

	utils.SafeAsync(func() {
		svc.acquireFreeTasks()
	})

	utils.SafeAsync(func() {
		svc.checkRecordsReady()
	})

	return svc
}

type episodeTaskProcessorImpl struct {
	episodeRepo    repository.EpisodeEvalTaskRepository
	recordRepo     repository.RecordEvalTaskRepository
	evaluationRepo repository.EvaluationRepository
	cl             client.PlatformClient
	rulesetService RulesetService
	thresholds     view.BandThresholds
	executorId     string
}

func (p *episodeTaskProcessorImpl) CreateTaskFromEvent(ctx context.Context, event view.EpisodeReadyEvent) (string, error) {
	task := entity.EpisodeEvalTask{
		Id:         uuid.NewString(),
		FacilityId: event.FacilityId,
		EpisodeId:  event.EpisodeId,
		EventId:    event.EventId,
		Status:     view.StatusNotStarted,
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
	}
	if err := p.episodeRepo.SaveEpisodeTask(ctx, task); err != nil {
		return "", err
	}
	return task.Id, nil
}

func (p *episodeTaskProcessorImpl) StartEpisodeEvalTask(taskId string) error {
	utils.SafeAsync(func() {
		p.processEpisodeEvalTask(taskId)
	})
	return nil
}

func (p *episodeTaskProcessorImpl) processEpisodeEvalTask(taskId string) {
	log.Debugf("Start processing episode evaluation task %s", taskId)

	ctx := context.Background()

	task, err := p.episodeRepo.GetTaskById(ctx, taskId)
	if err != nil {
		log.Errorf("Failed to get task by id %s: %s", taskId, err)
		return
	}
	if task == nil {
		log.Errorf("Episode evaluation task %s not found", taskId)
		return
	}
	if task.ExecutorId != "" && task.ExecutorId != p.executorId {
		log.Errorf("Episode task id=%s executorId=%s does not match current executorId=%s", taskId, task.ExecutorId, p.executorId)
		return
	}

	err = p.episodeRepo.UpdateStatusAndDetails(ctx, taskId, view.StatusProcessing, "")
	if err != nil {
		log.Errorf("Failed to update task %s status to %s: %v", taskId, view.StatusProcessing, err)
		return
	}

	secC := secctx.CreateSystemContext()

	records, err := p.cl.GetEpisodeRecords(secC, task.FacilityId, task.EpisodeId)
	if err != nil || records == nil {
		details := fmt.Sprintf("Failed to get episode records: %s", err)
		if updErr := p.episodeRepo.UpdateStatusAndDetails(ctx, taskId, view.StatusError, details); updErr != nil {
			log.Errorf("Failed to update task %s status to %s: %v", taskId, view.StatusError, updErr)
		}
		return
	}
	if len(records.Records) == 0 {
		if updErr := p.episodeRepo.UpdateStatusAndDetails(ctx, taskId, view.StatusSuccess, "episode has no clinical records"); updErr != nil {
			log.Errorf("Failed to update task %s status to %s: %v", taskId, view.StatusSuccess, updErr)
		}
		return
	}

	type rulesetLookup struct {
		rulesetId string
		err       error
	}

	domainToRuleset := make(map[view.ComplianceDomain]rulesetLookup)
	for _, record := range records.Records {
		if _, exists := domainToRuleset[record.Domain]; !exists {
			rulesetId, _, err := p.rulesetService.GetActiveRulesetChecks(secC, record.Domain)
			domainToRuleset[record.Domain] = rulesetLookup{rulesetId: rulesetId, err: err}
		}
	}

	var recordTasks []entity.RecordEvalTask

	for _, record := range records.Records {
		lookup := domainToRuleset[record.Domain]

		status := view.StatusNotStarted
		details := ""
		executorId := ""

		if lookup.err != nil {
			status = view.StatusError
			details = lookup.err.Error()
			executorId = p.executorId
		}

		recordTasks = append(recordTasks, entity.RecordEvalTask{
			Id:                uuid.NewString(),
			EpisodeEvalTaskId: taskId,
			FacilityId:        task.FacilityId,
			EpisodeId:         task.EpisodeId,
			RecordId:          record.RecordId,
			RecordSlug:        record.Slug,
			Domain:            record.Domain,
			RulesetId:         lookup.rulesetId,
			Status:            status,
			Details:           details,
			CreatedAt:         time.Now(),
			ExecutorId:        executorId,
			LastActive:        nil,
			RestartCount:      0,
			EvalTimeMs:        0,
		})
	}

	err = p.recordRepo.SaveRecordTasksAndUpdEpisode(ctx, recordTasks, taskId)
	if err != nil {
		details := fmt.Sprintf("Failed to save record tasks: %s", err)
		if updErr := p.episodeRepo.UpdateStatusAndDetails(ctx, taskId, view.StatusError, details); updErr != nil {
			log.Errorf("Failed to update task %s status to %s: %v", taskId, view.StatusError, updErr)
		}
		return
	}

	log.Infof("Episode evaluation task %s is processed, %d record task(s) created", taskId, len(recordTasks))
}

func (p *episodeTaskProcessorImpl) acquireFreeTasks() {
	t := time.NewTicker(time.Second * 5)
	ctx := context.Background()
	for range t.C {
		task, err := p.episodeRepo.FindFreeEpisodeTask(ctx, p.executorId)
		if err != nil {
			log.Errorf("Failed to find free episode task: %s", err)
			continue
		}
		if task != nil {
			p.processEpisodeEvalTask(task.Id)
		}
	}
}

// episodeCompletion reports whether all record tasks of an episode task are
// terminal and, if so, the resulting episode task status.
func episodeCompletion(recordTasks []entity.RecordEvalTask) (bool, view.TaskStatus, string) {
	done, failed := 0, 0
	for _, rt := range recordTasks {
		switch rt.Status {
		case view.StatusSuccess:
			done++
		case view.StatusError:
			failed++
		}
	}
	if done+failed < len(recordTasks) {
		return false, "", ""
	}
	if failed > 0 {
		return true, view.StatusError, fmt.Sprintf("%d of %d record evaluation(s) failed", failed, len(recordTasks))
	}
	return true, view.StatusSuccess, ""
}

func (p *episodeTaskProcessorImpl) checkRecordsReady() {
	t := time.NewTicker(time.Second * 5)
	ctx := context.Background()
	for range t.C {
		episodeTasks, err := p.episodeRepo.GetWaitingForRecordsTasks(ctx, p.executorId)
		if err != nil {
			log.Errorf("Failed to get episode tasks waiting for records: %s", err)
			continue
		}
		for _, episodeTask := range episodeTasks {
			recordTasks, err := p.recordRepo.GetTasksForEpisodeTask(ctx, episodeTask.Id)
			if err != nil {
				log.Errorf("Failed to get record tasks for episode task %s: %s", episodeTask.Id, err)
				continue
			}

			finished, status, details := episodeCompletion(recordTasks)
			if !finished {
				continue
			}
			if err := p.episodeRepo.UpdateStatusAndDetails(ctx, episodeTask.Id, status, details); err != nil {
				log.Errorf("Failed to update episode task %s status to %s: %v", episodeTask.Id, status, err)
				continue
			}
			log.Infof("Episode evaluation task %s finished with status %s", episodeTask.Id, status)
		}
	}
}

// GetRecordData returns the raw clinical record document, auditors use it to
// inspect the source behind a record evaluation.
func (p *episodeTaskProcessorImpl) GetRecordData(ctx context.Context, facilityId, episodeId, recordSlug string) ([]byte, error) {
	return p.cl.GetRecordRawData(ctx, facilityId, episodeId, recordSlug)
}

func (p *episodeTaskProcessorImpl) GetEpisodeStatus(ctx context.Context, episodeId string) (*view.EpisodeStatus, error) {
	task, err := p.episodeRepo.GetLatestTaskForEpisode(ctx, episodeId)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	recordTasks, err := p.recordRepo.GetTasksForEpisodeTask(ctx, task.Id)
	if err != nil {
		return nil, err
	}

	done, failed := 0, 0
	for _, rt := range recordTasks {
		switch rt.Status {
		case view.StatusSuccess:
			done++
		case view.StatusError:
			failed++
		}
	}

	status := view.EpisodeStatus{
		EpisodeId:     episodeId,
		Status:        task.Status,
		Details:       task.Details,
		RecordsTotal:  len(recordTasks),
		RecordsDone:   done,
		RecordsFailed: failed,
	}

	if task.Status == view.StatusSuccess {
		outcomes, err := p.evaluationRepo.ListEpisodeCheckOutcomes(ctx, episodeId)
		if err != nil {
			return nil, err
		}
		checks := make([]view.Check, 0, len(outcomes))
		for _, outcome := range outcomes {
			weight := outcome.Weight
			checks = append(checks, view.Check{
				Id:       outcome.CheckId,
				Label:    outcome.Label,
				Category: outcome.Category,
				State:    outcome.State,
				Weight:   &weight,
			})
		}
		score := EvaluateChecks(checks, p.thresholds)
		status.Score = &score
	}

	return &status, nil
}
