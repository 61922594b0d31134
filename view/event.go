package view

// EpisodeReadyEvent is published by the care platform when all clinical
// records of an episode are available for compliance evaluation.
type EpisodeReadyEvent struct {
	EventId    string `json:"eventId"`
	FacilityId string `json:"facilityId"`
	EpisodeId  string `json:"episodeId"`
}
