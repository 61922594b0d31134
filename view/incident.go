package view

import "time"

type IncidentClassifyRequest struct {
	FacilityId  string `json:"facilityId"`
	Description string `json:"description"`
}

type TaxonomyCategory string

const (
	CategoryPatientCare         TaxonomyCategory = "patient_care"
	CategoryMedication          TaxonomyCategory = "medication_iv_fluids"
	CategoryDocumentation       TaxonomyCategory = "documentation"
	CategoryClinicalProcess     TaxonomyCategory = "clinical_process"
	CategoryFacilityEnvironment TaxonomyCategory = "facility_environment"
	CategoryOther               TaxonomyCategory = "other"
)

// AIIncidentClassification is the structured output contract for the LLM.
type AIIncidentClassification struct {
	Category    string `json:"category" jsonschema:"enum=patient_care,enum=medication_iv_fluids,enum=documentation,enum=clinical_process,enum=facility_environment,enum=other"`
	Subcategory string `json:"subcategory"`
	Severity    string `json:"severity" jsonschema:"enum=low,enum=medium,enum=high,enum=catastrophic"`
	Rationale   string `json:"rationale"`
}

type IncidentClassification struct {
	Id           string           `json:"id"`
	FacilityId   string           `json:"facilityId"`
	Description  string           `json:"description"`
	Category     TaxonomyCategory `json:"category"`
	Subcategory  string           `json:"subcategory"`
	Severity     string           `json:"severity"`
	Rationale    string           `json:"rationale"`
	ClassifiedAt time.Time        `json:"classifiedAt"`
}

type IncidentCategorySummary struct {
	Categories []IncidentCategoryCount `json:"categories"`
}

type IncidentCategoryCount struct {
	Category TaxonomyCategory `json:"category"`
	Count    int              `json:"count"`
}

type UpdatePromptReq struct {
	Prompt string `json:"prompt"`
}

type UpdateModelReq struct {
	Model string `json:"model"`
}
