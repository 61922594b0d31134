package view

type TaskStatus string

const (
	StatusNotStarted        TaskStatus = "not_started"
	StatusProcessing        TaskStatus = "processing"
	StatusWaitingForRecords TaskStatus = "waiting_for_records" // episode task only
	StatusSuccess           TaskStatus = "success"
	StatusError             TaskStatus = "error"
)

type EpisodeStatus struct {
	EpisodeId     string       `json:"episodeId"`
	Status        TaskStatus   `json:"status"`
	Details       string       `json:"details,omitempty"`
	RecordsTotal  int          `json:"recordsTotal"`
	RecordsDone   int          `json:"recordsDone"`
	RecordsFailed int          `json:"recordsFailed"`
	Score         *ScoreResult `json:"score,omitempty"`
}
