package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEpisodeTaskRepository struct {
	tasks       map[string]*entity.EpisodeEvalTask
	eventIds    map[string]bool
	transitions []view.TaskStatus
}

func newStubEpisodeTaskRepository() *stubEpisodeTaskRepository {
	return &stubEpisodeTaskRepository{
		tasks:    map[string]*entity.EpisodeEvalTask{},
		eventIds: map[string]bool{},
	}
}

func (s *stubEpisodeTaskRepository) SaveEpisodeTask(ctx context.Context, ent entity.EpisodeEvalTask) error {
	if ent.EventId != "" && s.eventIds[ent.EventId] {
		return &exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.DuplicateEvent,
			Message: exception.DuplicateEventMsg,
			Params:  map[string]interface{}{"event_id": ent.EventId},
		}
	}
	s.eventIds[ent.EventId] = true
	s.tasks[ent.Id] = &ent
	return nil
}

func (s *stubEpisodeTaskRepository) GetTaskById(ctx context.Context, taskId string) (*entity.EpisodeEvalTask, error) {
	return s.tasks[taskId], nil
}

func (s *stubEpisodeTaskRepository) GetLatestTaskForEpisode(ctx context.Context, episodeId string) (*entity.EpisodeEvalTask, error) {
	var latest *entity.EpisodeEvalTask
	for _, task := range s.tasks {
		if task.EpisodeId == episodeId && (latest == nil || task.CreatedAt.After(latest.CreatedAt)) {
			latest = task
		}
	}
	return latest, nil
}

func (s *stubEpisodeTaskRepository) UpdateStatusAndDetails(ctx context.Context, taskId string, status view.TaskStatus, details string) error {
	s.transitions = append(s.transitions, status)
	if task, ok := s.tasks[taskId]; ok {
		task.Status = status
		task.Details = details
	}
	return nil
}

func (s *stubEpisodeTaskRepository) FindFreeEpisodeTask(ctx context.Context, executorId string) (*entity.EpisodeEvalTask, error) {
	return nil, nil
}

func (s *stubEpisodeTaskRepository) GetWaitingForRecordsTasks(ctx context.Context, executorId string) ([]entity.EpisodeEvalTask, error) {
	return nil, nil
}

func (s *stubEpisodeTaskRepository) DeleteTerminalTasksBefore(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

type stubRecordTaskRepository struct {
	saved []entity.RecordEvalTask
}

func (s *stubRecordTaskRepository) SaveRecordTasksAndUpdEpisode(ctx context.Context, ents []entity.RecordEvalTask, episodeTaskId string) error {
	s.saved = append(s.saved, ents...)
	return nil
}

func (s *stubRecordTaskRepository) FindFreeRecordTask(ctx context.Context, executorId string) (*entity.RecordEvalTask, error) {
	return nil, nil
}

func (s *stubRecordTaskRepository) GetTasksForEpisodeTask(ctx context.Context, episodeTaskId string) ([]entity.RecordEvalTask, error) {
	return s.saved, nil
}

func (s *stubRecordTaskRepository) CompleteRecordTask(ctx context.Context, taskId string, status view.TaskStatus, details string, evalTimeMs int) error {
	for i := range s.saved {
		if s.saved[i].Id == taskId {
			s.saved[i].Status = status
			s.saved[i].Details = details
			s.saved[i].EvalTimeMs = evalTimeMs
		}
	}
	return nil
}

type stubEHRClient struct {
	facility   *view.Facility
	records    *view.EpisodeRecords
	recordsErr error
	rawData    []byte
}

func (s *stubEHRClient) GetRsaPublicKey(ctx context.Context) (*view.PublicKey, error) {
	return nil, nil
}

func (s *stubEHRClient) GetApiKeyByKey(apiKey string) (*view.PlatformApiKeyView, error) {
	return nil, nil
}

func (s *stubEHRClient) CheckAuthToken(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func (s *stubEHRClient) GetUserByPAT(ctx context.Context, token string) (*view.User, error) {
	return nil, nil
}

func (s *stubEHRClient) GetFacilityById(ctx context.Context, facilityId string) (*view.Facility, error) {
	return s.facility, nil
}

func (s *stubEHRClient) GetEpisodeRecords(ctx context.Context, facilityId, episodeId string) (*view.EpisodeRecords, error) {
	return s.records, s.recordsErr
}

func (s *stubEHRClient) GetRecordDetails(ctx context.Context, facilityId, episodeId, recordSlug string) (*view.ClinicalRecord, error) {
	return nil, nil
}

func (s *stubEHRClient) GetRecordRawData(ctx context.Context, facilityId, episodeId, recordSlug string) ([]byte, error) {
	return s.rawData, nil
}

type stubActiveRulesetService struct {
	activeRulesetId string
	activeErr       error
}

func (s *stubActiveRulesetService) CreateRuleset(ctx context.Context, name string, domain view.ComplianceDomain, fileName string, data []byte) (*view.Ruleset, error) {
	return nil, nil
}

func (s *stubActiveRulesetService) ActivateRuleset(ctx context.Context, id string) error {
	return nil
}

func (s *stubActiveRulesetService) ListRulesets(ctx context.Context, textFilter string) (*view.Rulesets, error) {
	return &view.Rulesets{}, nil
}

func (s *stubActiveRulesetService) GetRuleset(ctx context.Context, id string) (*view.Ruleset, error) {
	return nil, nil
}

func (s *stubActiveRulesetService) GetRulesetData(ctx context.Context, id string) ([]byte, string, error) {
	return nil, "", nil
}

func (s *stubActiveRulesetService) GetActivationHistory(ctx context.Context, id string) ([]view.ActivationRecord, error) {
	return nil, nil
}

func (s *stubActiveRulesetService) DeleteRuleset(ctx context.Context, id string) error {
	return nil
}

func (s *stubActiveRulesetService) GetActiveRulesetChecks(ctx context.Context, domain view.ComplianceDomain) (string, []view.RulesetCheck, error) {
	return s.activeRulesetId, nil, s.activeErr
}

func newTestEpisodeProcessor(episodeRepo *stubEpisodeTaskRepository, recordRepo *stubRecordTaskRepository, cl *stubEHRClient, rulesets *stubActiveRulesetService) *episodeTaskProcessorImpl {
	return &episodeTaskProcessorImpl{
		episodeRepo:    episodeRepo,
		recordRepo:     recordRepo,
		evaluationRepo: &stubEvaluationRepository{},
		cl:             cl,
		rulesetService: rulesets,
		thresholds:     view.DefaultBandThresholds(),
		executorId:     "test-executor",
	}
}

func TestCreateTaskFromEventRejectsDuplicate(t *testing.T) {
	episodeRepo := newStubEpisodeTaskRepository()
	processor := newTestEpisodeProcessor(episodeRepo, &stubRecordTaskRepository{}, &stubEHRClient{}, &stubActiveRulesetService{})

	event := view.EpisodeReadyEvent{EventId: "evt-1", FacilityId: "fac-1", EpisodeId: "ep-1"}

	taskId, err := processor.CreateTaskFromEvent(context.Background(), event)
	require.NoError(t, err)
	assert.NotEmpty(t, taskId)
	assert.Equal(t, view.StatusNotStarted, episodeRepo.tasks[taskId].Status)

	_, err = processor.CreateTaskFromEvent(context.Background(), event)
	require.Error(t, err)
	var customError *exception.CustomError
	require.True(t, errors.As(err, &customError))
	assert.Equal(t, exception.DuplicateEvent, customError.Code)
}

func TestEpisodeCompletion(t *testing.T) {
	pending := []entity.RecordEvalTask{
		{Id: "rt-1", Status: view.StatusSuccess},
		{Id: "rt-2", Status: view.StatusProcessing},
	}
	finished, _, _ := episodeCompletion(pending)
	assert.False(t, finished)

	allDone := []entity.RecordEvalTask{
		{Id: "rt-1", Status: view.StatusSuccess},
		{Id: "rt-2", Status: view.StatusSuccess},
	}
	finished, status, details := episodeCompletion(allDone)
	assert.True(t, finished)
	assert.Equal(t, view.StatusSuccess, status)
	assert.Empty(t, details)

	partialFailure := []entity.RecordEvalTask{
		{Id: "rt-1", Status: view.StatusSuccess},
		{Id: "rt-2", Status: view.StatusError},
	}
	finished, status, details = episodeCompletion(partialFailure)
	assert.True(t, finished)
	assert.Equal(t, view.StatusError, status)
	assert.Equal(t, "1 of 2 record evaluation(s) failed", details)
}

func TestProcessEpisodeEvalTaskCreatesRecordTasks(t *testing.T) {
	episodeRepo := newStubEpisodeTaskRepository()
	recordRepo := &stubRecordTaskRepository{}
	cl := &stubEHRClient{
		records: &view.EpisodeRecords{Records: []view.ClinicalRecord{
			{RecordId: "rec-1", Slug: "clinical-round-1", Type: view.RecordTypeClinicalRound, Domain: view.PatientSafetyDomain},
			{RecordId: "rec-2", Slug: "wound-care-1", Type: view.RecordTypeWoundCare, Domain: view.PatientSafetyDomain},
		}},
	}
	processor := newTestEpisodeProcessor(episodeRepo, recordRepo, cl, &stubActiveRulesetService{activeRulesetId: "rs-1"})

	taskId, err := processor.CreateTaskFromEvent(context.Background(), view.EpisodeReadyEvent{EventId: "evt-1", FacilityId: "fac-1", EpisodeId: "ep-1"})
	require.NoError(t, err)

	processor.processEpisodeEvalTask(taskId)

	require.Equal(t, []view.TaskStatus{view.StatusProcessing}, episodeRepo.transitions)
	require.Len(t, recordRepo.saved, 2)
	for _, rt := range recordRepo.saved {
		assert.Equal(t, taskId, rt.EpisodeEvalTaskId)
		assert.Equal(t, "rs-1", rt.RulesetId)
		assert.Equal(t, view.StatusNotStarted, rt.Status)
	}
}

func TestProcessEpisodeEvalTaskNoRecords(t *testing.T) {
	episodeRepo := newStubEpisodeTaskRepository()
	recordRepo := &stubRecordTaskRepository{}
	cl := &stubEHRClient{records: &view.EpisodeRecords{}}
	processor := newTestEpisodeProcessor(episodeRepo, recordRepo, cl, &stubActiveRulesetService{activeRulesetId: "rs-1"})

	taskId, err := processor.CreateTaskFromEvent(context.Background(), view.EpisodeReadyEvent{EventId: "evt-1", FacilityId: "fac-1", EpisodeId: "ep-1"})
	require.NoError(t, err)

	processor.processEpisodeEvalTask(taskId)

	assert.Equal(t, view.StatusSuccess, episodeRepo.tasks[taskId].Status)
	assert.Equal(t, "episode has no clinical records", episodeRepo.tasks[taskId].Details)
	assert.Empty(t, recordRepo.saved)
}

func TestProcessEpisodeEvalTaskNoActiveRuleset(t *testing.T) {
	episodeRepo := newStubEpisodeTaskRepository()
	recordRepo := &stubRecordTaskRepository{}
	cl := &stubEHRClient{
		records: &view.EpisodeRecords{Records: []view.ClinicalRecord{
			{RecordId: "rec-1", Slug: "clinical-round-1", Type: view.RecordTypeClinicalRound, Domain: view.InfectionControlDomain},
		}},
	}
	processor := newTestEpisodeProcessor(episodeRepo, recordRepo, cl, &stubActiveRulesetService{activeErr: errors.New("no active ruleset for domain infection_control")})

	taskId, err := processor.CreateTaskFromEvent(context.Background(), view.EpisodeReadyEvent{EventId: "evt-1", FacilityId: "fac-1", EpisodeId: "ep-1"})
	require.NoError(t, err)

	processor.processEpisodeEvalTask(taskId)

	require.Len(t, recordRepo.saved, 1)
	assert.Equal(t, view.StatusError, recordRepo.saved[0].Status)
	assert.Equal(t, "no active ruleset for domain infection_control", recordRepo.saved[0].Details)
}
