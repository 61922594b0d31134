package entity

import (
	"github.com/carebridge/compliance-service/view"
	"time"
)

type Incident struct {
	tableName struct{} `pg:"incident"`

	Id           string                `pg:"id,pk,type:varchar"`
	FacilityId   string                `pg:"facility_id,type:varchar,notnull"`
	Description  string                `pg:"description,type:varchar,notnull"`
	Category     view.TaxonomyCategory `pg:"category,type:varchar,notnull"`
	Subcategory  string                `pg:"subcategory,type:varchar"`
	Severity     string                `pg:"severity,type:varchar,notnull"`
	Rationale    string                `pg:"rationale,type:varchar"`
	ClassifiedAt time.Time             `pg:"classified_at,type:timestamp without time zone,notnull"`
	ClassifiedBy string                `pg:"classified_by,type:varchar"`
}

func MakeIncidentView(ent Incident) view.IncidentClassification {
	return view.IncidentClassification{
		Id:           ent.Id,
		FacilityId:   ent.FacilityId,
		Description:  ent.Description,
		Category:     ent.Category,
		Subcategory:  ent.Subcategory,
		Severity:     ent.Severity,
		Rationale:    ent.Rationale,
		ClassifiedAt: ent.ClassifiedAt,
	}
}
