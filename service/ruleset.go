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
	"github.com/carebridge/compliance-service/utils"
	"github.com/carebridge/compliance-service/view"
	"github.com/buraksezer/olric"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type RulesetService interface {
	CreateRuleset(ctx context.Context, name string, domain view.ComplianceDomain, fileName string, data []byte) (*view.Ruleset, error)
	ActivateRuleset(ctx context.Context, id string) error
	ListRulesets(ctx context.Context, textFilter string) (*view.Rulesets, error)
	GetRuleset(ctx context.Context, id string) (*view.Ruleset, error)
	GetRulesetData(ctx context.Context, id string) ([]byte, string, error)
	GetActivationHistory(ctx context.Context, id string) ([]view.ActivationRecord, error)
	DeleteRuleset(ctx context.Context, id string) error

	GetActiveRulesetChecks(ctx context.Context, domain view.ComplianceDomain) (string, []view.RulesetCheck, error)
}

func NewRulesetService(rulesetRepository repository.RulesetRepository, op client.OlricProvider) RulesetService {
	return &rulesetServiceImpl{rulesetRepository: rulesetRepository, op: op}
}

type rulesetServiceImpl struct {
	rulesetRepository repository.RulesetRepository
	op                client.OlricProvider

	dmOnce             sync.Once
	activeRulesetsDMap *olric.DMap
}

const activeRulesetsDMapName = "active-rulesets"

// ParseRulesetFile decodes an uploaded ruleset document and validates it.
func ParseRulesetFile(data []byte) (*view.RulesetFile, error) {
	var file view.RulesetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidRulesetFile,
			Message: exception.InvalidRulesetFileMsg,
			Params:  map[string]interface{}{"error": "not a valid json document"},
			Debug:   err.Error(),
		}
	}

	if len(file.Checks) == 0 {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidRulesetFile,
			Message: exception.InvalidRulesetFileMsg,
			Params:  map[string]interface{}{"error": "checks list is empty"},
		}
	}

	seen := make(map[string]struct{}, len(file.Checks))
	for _, check := range file.Checks {
		if check.Id == "" || check.Label == "" {
			return nil, &exception.CustomError{
				Status:  http.StatusBadRequest,
				Code:    exception.InvalidRulesetFile,
				Message: exception.InvalidRulesetFileMsg,
				Params:  map[string]interface{}{"error": "each check requires id and label"},
			}
		}
		if _, exists := seen[check.Id]; exists {
			return nil, &exception.CustomError{
				Status:  http.StatusBadRequest,
				Code:    exception.DuplicateCheckId,
				Message: exception.DuplicateCheckIdMsg,
				Params:  map[string]interface{}{"id": check.Id},
			}
		}
		seen[check.Id] = struct{}{}
	}
	return &file, nil
}

func ValidateComplianceDomain(domain view.ComplianceDomain) error {
	switch domain {
	case view.PatientSafetyDomain, view.ClinicalDocumentationDomain, view.InfectionControlDomain, view.MedicationManagementDomain:
		return nil
	default:
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.UnknownComplianceDomain,
			Message: exception.UnknownComplianceDomainMsg,
			Params:  map[string]interface{}{"domain": domain},
		}
	}
}

func (r *rulesetServiceImpl) CreateRuleset(ctx context.Context, name string, domain view.ComplianceDomain, fileName string, data []byte) (*view.Ruleset, error) {
	file, err := ParseRulesetFile(data)
	if err != nil {
		return nil, err
	}

	checksum := utils.CreateSHA256Hash(data)
	existing, err := r.rulesetRepository.GetRulesetByChecksum(ctx, domain, checksum)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Infof("Ruleset with the same content already exists for domain %s, returning %s", domain, existing.Id)
		result := entity.MakeRulesetView(*existing)
		return &result, nil
	}

	ent := entity.Ruleset{
		Id:           uuid.NewString(),
		Name:         name,
		Status:       view.RulesetStatusInactive,
		Domain:       domain,
		Data:         data,
		Checksum:     checksum,
		FileName:     fileName,
		CheckCount:   len(file.Checks),
		CreatedAt:    time.Now(),
		CreatedBy:    secctx.GetUserId(ctx),
		CanBeDeleted: true,
	}

	if err := r.rulesetRepository.SaveRuleset(ctx, ent); err != nil {
		return nil, err
	}

	result := entity.MakeRulesetView(ent)
	return &result, nil
}

func (r *rulesetServiceImpl) ActivateRuleset(ctx context.Context, id string) error {
	ent, err := r.rulesetRepository.GetRulesetById(ctx, id)
	if err != nil {
		return err
	}
	if ent == nil {
		return &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "ruleset", "id": id},
		}
	}

	err = r.rulesetRepository.ActivateRuleset(ctx, id, secctx.GetUserId(ctx))
	if err != nil {
		return err
	}

	r.evictActiveRulesetCache(string(ent.Domain))
	log.Infof("Ruleset %s activated for domain %s", id, ent.Domain)
	return nil
}

func (r *rulesetServiceImpl) ListRulesets(ctx context.Context, textFilter string) (*view.Rulesets, error) {
	namePattern := ""
	if textFilter != "" {
		namePattern = "%" + utils.LikeEscaped(textFilter) + "%"
	}
	ents, err := r.rulesetRepository.ListRulesets(ctx, namePattern)
	if err != nil {
		return nil, err
	}
	rulesets := make([]view.Ruleset, 0, len(ents))
	for _, ent := range ents {
		rulesets = append(rulesets, entity.MakeRulesetView(ent))
	}
	return &view.Rulesets{Rulesets: rulesets}, nil
}

func (r *rulesetServiceImpl) GetRuleset(ctx context.Context, id string) (*view.Ruleset, error) {
	ent, err := r.rulesetRepository.GetRulesetById(ctx, id)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, nil
	}
	result := entity.MakeRulesetView(*ent)
	return &result, nil
}

func (r *rulesetServiceImpl) GetRulesetData(ctx context.Context, id string) ([]byte, string, error) {
	ent, err := r.rulesetRepository.GetRulesetById(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if ent == nil {
		return nil, "", nil
	}
	return ent.Data, ent.FileName, nil
}

func (r *rulesetServiceImpl) GetActivationHistory(ctx context.Context, id string) ([]view.ActivationRecord, error) {
	ents, err := r.rulesetRepository.GetActivationHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	records := make([]view.ActivationRecord, 0, len(ents))
	for _, ent := range ents {
		records = append(records, entity.MakeActivationRecordView(ent))
	}
	return records, nil
}

func (r *rulesetServiceImpl) DeleteRuleset(ctx context.Context, id string) error {
	ent, err := r.rulesetRepository.GetRulesetById(ctx, id)
	if err != nil {
		return err
	}
	if ent == nil {
		return &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "ruleset", "id": id},
		}
	}
	if !ent.CanBeDeleted || ent.Status == view.RulesetStatusActive {
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RulesetCanNotBeDeleted,
			Message: exception.RulesetCanNotBeDeletedMsg,
			Params:  map[string]interface{}{"id": id},
		}
	}
	return r.rulesetRepository.DeleteRuleset(ctx, id)
}

// GetActiveRulesetChecks returns the active ruleset id and check definitions
// for a compliance domain, reading through the olric cache.
func (r *rulesetServiceImpl) GetActiveRulesetChecks(ctx context.Context, domain view.ComplianceDomain) (string, []view.RulesetCheck, error) {
	if cached := r.getCachedActiveRuleset(string(domain)); cached != nil {
		file, err := ParseRulesetFile(cached.Data)
		if err == nil {
			return cached.Id, file.Checks, nil
		}
		log.Warnf("Cached ruleset for domain %s is not parseable, falling back to DB: %v", domain, err)
	}

	ent, err := r.rulesetRepository.GetActiveRuleset(ctx, domain)
	if err != nil {
		return "", nil, err
	}
	if ent == nil {
		return "", nil, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.NoActiveRuleset,
			Message: exception.NoActiveRulesetMsg,
			Params:  map[string]interface{}{"domain": domain},
		}
	}

	file, err := ParseRulesetFile(ent.Data)
	if err != nil {
		return "", nil, fmt.Errorf("active ruleset %s is corrupted: %w", ent.Id, err)
	}

	r.putActiveRulesetCache(string(domain), cachedRuleset{Id: ent.Id, Data: ent.Data})
	return ent.Id, file.Checks, nil
}

type cachedRuleset struct {
	Id   string `json:"id"`
	Data []byte `json:"data"`
}

// getDMap creates the dmap once, the service is shared between HTTP handlers
// and the episode processor goroutines.
func (r *rulesetServiceImpl) getDMap() *olric.DMap {
	r.dmOnce.Do(func() {
		if r.op == nil {
			return
		}
		dm, err := r.op.Get().NewDMap(activeRulesetsDMapName)
		if err != nil {
			log.Errorf("Failed to create DMap %s: %s", activeRulesetsDMapName, err.Error())
			return
		}
		r.activeRulesetsDMap = dm
	})
	return r.activeRulesetsDMap
}

func (r *rulesetServiceImpl) getCachedActiveRuleset(domain string) *cachedRuleset {
	dm := r.getDMap()
	if dm == nil {
		return nil
	}
	value, err := dm.Get(domain)
	if err != nil {
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		return nil
	}
	var cached cachedRuleset
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	return &cached
}

func (r *rulesetServiceImpl) putActiveRulesetCache(domain string, cached cachedRuleset) {
	dm := r.getDMap()
	if dm == nil {
		return
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := dm.Put(domain, data); err != nil {
		log.Warnf("Failed to cache active ruleset for domain %s: %v", domain, err)
	}
}

func (r *rulesetServiceImpl) evictActiveRulesetCache(domain string) {
	dm := r.getDMap()
	if dm == nil {
		return
	}
	if err := dm.Delete(domain); err != nil {
		log.Debugf("Failed to evict active ruleset cache for domain %s: %v", domain, err)
	}
}
