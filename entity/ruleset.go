package entity

import (
	"github.com/carebridge/compliance-service/view"
	"time"
)

type Ruleset struct {
	tableName struct{} `pg:"ruleset"`

	Id           string                `pg:"id,pk,type:varchar"`
	Name         string                `pg:"name,type:varchar,notnull"`
	Status       view.RulesetStatus    `pg:"status,type:varchar,notnull"`
	Domain       view.ComplianceDomain `pg:"domain,type:varchar,notnull"`
	Data         []byte                `pg:"data,type:bytea,notnull"`
	Checksum     string                `pg:"checksum,type:varchar,notnull"`
	FileName     string                `pg:"file_name,type:varchar"`
	CheckCount   int                   `pg:"check_count,type:integer,notnull"`
	CreatedAt    time.Time             `pg:"created_at,type:timestamp without time zone,notnull"`
	CreatedBy    string                `pg:"created_by,type:varchar"`
	CanBeDeleted bool                  `pg:"can_be_deleted,type:bool"`
}

type RulesetActivationHistory struct {
	tableName struct{} `pg:"ruleset_activation_history"`

	RulesetId   string    `pg:"ruleset_id,type:varchar,notnull"`
	ActivatedAt time.Time `pg:"activated_at,type:timestamp without time zone"`
	ActivatedBy string    `pg:"activated_by,type:varchar"`
}

func MakeRulesetView(ent Ruleset) view.Ruleset {
	return view.Ruleset{
		Id:           ent.Id,
		Name:         ent.Name,
		Status:       ent.Status,
		FileName:     ent.FileName,
		Domain:       ent.Domain,
		CheckCount:   ent.CheckCount,
		CreatedAt:    ent.CreatedAt,
		CanBeDeleted: ent.CanBeDeleted,
	}
}

func MakeActivationRecordView(ent RulesetActivationHistory) view.ActivationRecord {
	return view.ActivationRecord{
		ActivatedAt: ent.ActivatedAt,
		ActivatedBy: ent.ActivatedBy,
	}
}
