package service

import (
	"context"
	"testing"

	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLMClient struct {
	classification view.AIIncidentClassification
	err            error
}

func (s *stubLLMClient) ClassifyIncident(ctx context.Context, description string) (*view.AIIncidentClassification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.classification, nil
}

func (s *stubLLMClient) UpdateClassifyPrompt(prompt string) {}

func (s *stubLLMClient) UpdateModel(model string) error { return nil }

type stubIncidentRepository struct {
	saved []entity.Incident
}

func (s *stubIncidentRepository) SaveIncident(ctx context.Context, ent entity.Incident) error {
	s.saved = append(s.saved, ent)
	return nil
}

func (s *stubIncidentRepository) GetIncidentById(ctx context.Context, id string) (*entity.Incident, error) {
	for _, ent := range s.saved {
		if ent.Id == id {
			return &ent, nil
		}
	}
	return nil, nil
}

func (s *stubIncidentRepository) GetCategoryCounts(ctx context.Context, facilityId string) ([]view.IncidentCategoryCount, error) {
	counts := map[view.TaxonomyCategory]int{}
	for _, ent := range s.saved {
		counts[ent.Category]++
	}
	result := make([]view.IncidentCategoryCount, 0, len(counts))
	for category, count := range counts {
		result = append(result, view.IncidentCategoryCount{Category: category, Count: count})
	}
	return result, nil
}

func TestClassifyIncident(t *testing.T) {
	repo := &stubIncidentRepository{}
	svc := NewIncidentService(repo, &stubLLMClient{classification: view.AIIncidentClassification{
		Category:    "medication_iv_fluids",
		Subcategory: "missed dose",
		Severity:    "medium",
		Rationale:   "An insulin dose was skipped without escalation.",
	}})

	result, err := svc.ClassifyIncident(context.Background(), view.IncidentClassifyRequest{
		FacilityId:  "fac-1",
		Description: "Evening insulin dose was not administered",
	})
	require.NoError(t, err)

	assert.Equal(t, view.CategoryMedication, result.Category)
	assert.Equal(t, "missed dose", result.Subcategory)
	assert.Equal(t, "medium", result.Severity)
	assert.NotEmpty(t, result.Id)
	require.Len(t, repo.saved, 1)
}

func TestClassifyIncidentUnknownCategoryFallsBack(t *testing.T) {
	svc := NewIncidentService(&stubIncidentRepository{}, &stubLLMClient{classification: view.AIIncidentClassification{
		Category: "made_up_category",
		Severity: "low",
	}})

	result, err := svc.ClassifyIncident(context.Background(), view.IncidentClassifyRequest{
		FacilityId:  "fac-1",
		Description: "Something unusual happened",
	})
	require.NoError(t, err)

	assert.Equal(t, view.CategoryOther, result.Category)
}

func TestClassifyIncidentMissingParams(t *testing.T) {
	svc := NewIncidentService(&stubIncidentRepository{}, &stubLLMClient{})

	_, err := svc.ClassifyIncident(context.Background(), view.IncidentClassifyRequest{FacilityId: "fac-1"})
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.RequiredParamsMissing, customError.Code)
}

func TestGetIncidentNotFound(t *testing.T) {
	svc := NewIncidentService(&stubIncidentRepository{}, &stubLLMClient{})

	_, err := svc.GetIncident(context.Background(), "missing")
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.EntityNotFound, customError.Code)
}
