package service

import (
	"testing"
	"time"

	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCheckStatesFromRecord(t *testing.T) {
	fresh := time.Now().Add(-time.Hour)
	stale := time.Now().Add(-recordFieldStaleness - time.Hour)

	record := view.ClinicalRecord{
		RecordId: "rec-1",
		Slug:     "clinical-round-1",
		Type:     view.RecordTypeClinicalRound,
		Fields: []view.RecordField{
			{Name: "vital_signs", Required: true, Present: true, UpdatedAt: &fresh},
			{Name: "pain_assessment", Required: true, Present: true, UpdatedAt: &stale},
			{Name: "medication_list", Required: true, Present: false},
			{Name: "care_plan_review", Required: true, Present: true},
		},
	}

	states := BuildCheckStatesFromRecord(record)

	require.Len(t, states, 4)
	assert.Equal(t, view.CheckStateSatisfied, states[0].State)
	assert.Equal(t, view.CheckStatePartial, states[1].State)
	assert.Equal(t, view.CheckStateUnsatisfied, states[2].State)
	// present without a timestamp counts as fresh
	assert.Equal(t, view.CheckStateSatisfied, states[3].State)

	assert.Equal(t, "vital_signs", states[0].Id)
	assert.Equal(t, "pain_assessment", states[1].Id)
}

func TestBuildCheckStatesSkipsIncompleteOptionalFields(t *testing.T) {
	fresh := time.Now().Add(-time.Hour)
	stale := time.Now().Add(-recordFieldStaleness - time.Hour)

	record := view.ClinicalRecord{
		RecordId: "rec-2",
		Slug:     "clinical-round-2",
		Type:     view.RecordTypeClinicalRound,
		Fields: []view.RecordField{
			{Name: "wound_photo", Required: false, Present: false},
			{Name: "family_notes", Required: false, Present: true, UpdatedAt: &stale},
			{Name: "nutrition_log", Required: false, Present: true, UpdatedAt: &fresh},
		},
	}

	states := BuildCheckStatesFromRecord(record)

	// optional fields never degrade the score, only a complete one counts
	require.Len(t, states, 1)
	assert.Equal(t, "nutrition_log", states[0].Id)
	assert.Equal(t, view.CheckStateSatisfied, states[0].State)
}

func TestBuildCheckStatesFromEmptyRecord(t *testing.T) {
	states := BuildCheckStatesFromRecord(view.ClinicalRecord{RecordId: "rec-1"})
	assert.Empty(t, states)
}
