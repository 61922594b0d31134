package view

import "time"

type ComplianceDomain string

const (
	PatientSafetyDomain         ComplianceDomain = "patient_safety"
	ClinicalDocumentationDomain ComplianceDomain = "clinical_documentation"
	InfectionControlDomain      ComplianceDomain = "infection_control"
	MedicationManagementDomain  ComplianceDomain = "medication_management"
)

type Ruleset struct {
	Id           string           `json:"id"`
	Name         string           `json:"name"`
	Status       RulesetStatus    `json:"status"`
	FileName     string           `json:"fileName"`
	Domain       ComplianceDomain `json:"domain"`
	CheckCount   int              `json:"checkCount"`
	CreatedAt    time.Time        `json:"createdAt"`
	CanBeDeleted bool             `json:"canBeDeleted"`
}

type RulesetStatus string

const (
	RulesetStatusActive   RulesetStatus = "active"
	RulesetStatusInactive RulesetStatus = "inactive"
)

type Rulesets struct {
	Rulesets []Ruleset `json:"rulesets"`
}

// RulesetFile is the uploaded ruleset document format.
type RulesetFile struct {
	Checks []RulesetCheck `json:"checks"`
}

// RulesetCheck is a check definition as stored in a ruleset file.
// It carries no state; state arrives with each evaluation request.
type RulesetCheck struct {
	Id       string   `json:"id"`
	Label    string   `json:"label"`
	Category string   `json:"category,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
}

type ActivationHistoryResponse struct {
	Id                string             `json:"id"`
	ActivationHistory []ActivationRecord `json:"activationHistory"`
}

type ActivationRecord struct {
	ActivatedAt time.Time `json:"activatedAt"`
	ActivatedBy string    `json:"activatedBy"`
}
