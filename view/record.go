package view

import "time"

// Views for data served by the care platform API.

type EpisodeRecords struct {
	Records []ClinicalRecord `json:"records"`
}

type RecordType string

const (
	RecordTypeClinicalRound RecordType = "clinical_round"
	RecordTypeSafetyReport  RecordType = "safety_report"
	RecordTypeMedicationLog RecordType = "medication_log"
	RecordTypeWoundCare     RecordType = "wound_care"
)

type ClinicalRecord struct {
	RecordId   string           `json:"recordId"`
	Slug       string           `json:"slug"`
	Type       RecordType       `json:"type"`
	Domain     ComplianceDomain `json:"domain"`
	Title      string           `json:"title,omitempty"`
	AuthorId   string           `json:"authorId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  *time.Time       `json:"updatedAt,omitempty"`
	SignedAt   *time.Time       `json:"signedAt,omitempty"`
	Fields     []RecordField    `json:"fields"`
}

// RecordField is one documented value inside a clinical record.
// Required fields that are missing or stale degrade the compliance score.
type RecordField struct {
	Name      string     `json:"name"`
	Required  bool       `json:"required"`
	Present   bool       `json:"present"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type Facility struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}
