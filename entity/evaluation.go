package entity

import (
	"github.com/carebridge/compliance-service/view"
	"time"
)

type Evaluation struct {
	tableName struct{} `pg:"evaluation"`

	Id             string                 `pg:"id,pk,type:varchar"`
	FacilityId     string                 `pg:"facility_id,type:varchar,notnull"`
	EpisodeId      string                 `pg:"episode_id,type:varchar"`
	RulesetId      string                 `pg:"ruleset_id,type:varchar"`
	Domain         view.ComplianceDomain  `pg:"domain,type:varchar"`
	Percentage     int                    `pg:"percentage,type:integer,notnull"`
	Band           view.Band              `pg:"band,type:varchar,notnull"`
	SatisfiedCount int                    `pg:"satisfied_count,type:integer,notnull"`
	TotalCount     int                    `pg:"total_count,type:integer,notnull"`
	Summary        map[string]interface{} `pg:"summary,type:jsonb"`
	EvaluatedAt    time.Time              `pg:"evaluated_at,type:timestamp without time zone,notnull"`
	EvaluatedBy    string                 `pg:"evaluated_by,type:varchar"`
}

// CheckOutcome stores the state of a single check within an evaluation,
// used for shortfall aggregation in quality reports.
type CheckOutcome struct {
	tableName struct{} `pg:"check_outcome"`

	EvaluationId string          `pg:"evaluation_id,pk,type:varchar,notnull"`
	CheckId      string          `pg:"check_id,pk,type:varchar,notnull"`
	Label        string          `pg:"label,type:varchar"`
	Category     string          `pg:"category,type:varchar"`
	State        view.CheckState `pg:"state,type:varchar,notnull"`
	Weight       float64         `pg:"weight,type:double precision,notnull"`
}

func MakeEvaluationView(ent Evaluation, categoryScores []view.CategoryScore) view.EvaluationResult {
	return view.EvaluationResult{
		Id:         ent.Id,
		FacilityId: ent.FacilityId,
		EpisodeId:  ent.EpisodeId,
		RulesetId:  ent.RulesetId,
		Domain:     ent.Domain,
		Score: view.ScoreResult{
			Percentage:     ent.Percentage,
			Band:           ent.Band,
			SatisfiedCount: ent.SatisfiedCount,
			TotalCount:     ent.TotalCount,
		},
		CategoryScores: categoryScores,
		EvaluatedAt:    ent.EvaluatedAt,
		EvaluatedBy:    ent.EvaluatedBy,
	}
}
