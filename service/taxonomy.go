package service

import (
	"context"
	"net/http"
	"time"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/repository"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/view"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type IncidentService interface {
	ClassifyIncident(ctx context.Context, req view.IncidentClassifyRequest) (*view.IncidentClassification, error)
	GetIncident(ctx context.Context, id string) (*view.IncidentClassification, error)
	GetCategorySummary(ctx context.Context, facilityId string) (*view.IncidentCategorySummary, error)
	UpdateClassifyPrompt(prompt string)
	UpdateModel(model string) error
}

func NewIncidentService(incidentRepo repository.IncidentRepository, llmClient client.LLMClient) IncidentService {
	return &incidentServiceImpl{
		incidentRepo: incidentRepo,
		llmClient:    llmClient,
	}
}

type incidentServiceImpl struct {
	incidentRepo repository.IncidentRepository
	llmClient    client.LLMClient
}

func (i *incidentServiceImpl) ClassifyIncident(ctx context.Context, req view.IncidentClassifyRequest) (*view.IncidentClassification, error) {
	if req.FacilityId == "" || req.Description == "" {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "facilityId, description"},
		}
	}

	classification, err := i.llmClient.ClassifyIncident(ctx, req.Description)
	if err != nil {
		log.Errorf("Incident classification failed for facility %s: %s", req.FacilityId, err)
		return nil, err
	}

	category := view.TaxonomyCategory(classification.Category)
	if !validTaxonomyCategory(category) {
		log.Warnf("Model returned unknown taxonomy category '%s', falling back to '%s'", classification.Category, view.CategoryOther)
		category = view.CategoryOther
	}

	ent := entity.Incident{
		Id:           uuid.NewString(),
		FacilityId:   req.FacilityId,
		Description:  req.Description,
		Category:     category,
		Subcategory:  classification.Subcategory,
		Severity:     classification.Severity,
		Rationale:    classification.Rationale,
		ClassifiedAt: time.Now(),
		ClassifiedBy: secctx.GetUserId(ctx),
	}
	if err := i.incidentRepo.SaveIncident(ctx, ent); err != nil {
		return nil, err
	}

	result := entity.MakeIncidentView(ent)
	return &result, nil
}

func (i *incidentServiceImpl) GetIncident(ctx context.Context, id string) (*view.IncidentClassification, error) {
	ent, err := i.incidentRepo.GetIncidentById(ctx, id)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "incident", "id": id},
		}
	}
	result := entity.MakeIncidentView(*ent)
	return &result, nil
}

func (i *incidentServiceImpl) GetCategorySummary(ctx context.Context, facilityId string) (*view.IncidentCategorySummary, error) {
	counts, err := i.incidentRepo.GetCategoryCounts(ctx, facilityId)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []view.IncidentCategoryCount{}
	}
	return &view.IncidentCategorySummary{Categories: counts}, nil
}

func (i *incidentServiceImpl) UpdateClassifyPrompt(prompt string) {
	i.llmClient.UpdateClassifyPrompt(prompt)
}

func (i *incidentServiceImpl) UpdateModel(model string) error {
	return i.llmClient.UpdateModel(model)
}

func validTaxonomyCategory(category view.TaxonomyCategory) bool {
	switch category {
	case view.CategoryPatientCare, view.CategoryMedication, view.CategoryDocumentation,
		view.CategoryClinicalProcess, view.CategoryFacilityEnvironment, view.CategoryOther:
		return true
	}
	return false
}
