package entity

import (
	"github.com/carebridge/compliance-service/view"
	"time"
)

type EpisodeEvalTask struct {
	tableName struct{} `pg:"episode_eval_task"`

	Id           string          `pg:"id,pk,type:varchar"`
	FacilityId   string          `pg:"facility_id,type:varchar,notnull"`
	EpisodeId    string          `pg:"episode_id,type:varchar,notnull"`
	EventId      string          `pg:"event_id,type:varchar"`
	Status       view.TaskStatus `pg:"status,type:varchar,notnull"`
	Details      string          `pg:"details,type:varchar"`
	CreatedAt    time.Time       `pg:"created_at,type:timestamp without time zone,notnull"`
	ExecutorId   string          `pg:"executor_id,type:varchar"`
	LastActive   time.Time       `pg:"last_active,type:timestamp without time zone,notnull"`
	RestartCount int             `pg:"restart_count,type:integer"`
}

type RecordEvalTask struct {
	tableName struct{} `pg:"record_eval_task"`

	Id                string                `pg:"id,pk,type:varchar"`
	EpisodeEvalTaskId string                `pg:"episode_eval_task_id,type:varchar,notnull"`
	FacilityId        string                `pg:"facility_id,type:varchar,notnull"`
	EpisodeId         string                `pg:"episode_id,type:varchar,notnull"`
	RecordId          string                `pg:"record_id,type:varchar,notnull"`
	RecordSlug        string                `pg:"record_slug,type:varchar,notnull"`
	Domain            view.ComplianceDomain `pg:"domain,type:varchar,notnull"`
	RulesetId         string                `pg:"ruleset_id,type:varchar,notnull"`
	Status            view.TaskStatus       `pg:"status,type:varchar,notnull"`
	Details           string                `pg:"details,type:varchar"`
	CreatedAt         time.Time             `pg:"created_at,type:timestamp without time zone,notnull"`
	ExecutorId        string                `pg:"executor_id,type:varchar"`
	LastActive        *time.Time            `pg:"last_active,type:timestamp without time zone"`
	RestartCount      int                   `pg:"restart_count,type:integer,notnull"`
	EvalTimeMs        int                   `pg:"eval_time_ms,type:integer,notnull"`
}
