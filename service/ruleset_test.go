package service

import (
	"context"
	"testing"

	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRulesetFile(t *testing.T) {
	data := []byte(`{"checks":[
		{"id":"hand_hygiene","label":"Hand hygiene protocol followed","category":"hygiene","weight":2},
		{"id":"care_plan_signed","label":"Care plan signed"}
	]}`)

	file, err := ParseRulesetFile(data)
	require.NoError(t, err)
	require.Len(t, file.Checks, 2)

	assert.Equal(t, "hand_hygiene", file.Checks[0].Id)
	assert.Equal(t, "hygiene", file.Checks[0].Category)
	require.NotNil(t, file.Checks[0].Weight)
	assert.Equal(t, float64(2), *file.Checks[0].Weight)
	assert.Nil(t, file.Checks[1].Weight)
}

func TestParseRulesetFileNotJson(t *testing.T) {
	_, err := ParseRulesetFile([]byte("not a json"))
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.InvalidRulesetFile, customError.Code)
}

func TestParseRulesetFileEmptyChecks(t *testing.T) {
	_, err := ParseRulesetFile([]byte(`{"checks":[]}`))
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.InvalidRulesetFile, customError.Code)
}

func TestParseRulesetFileMissingLabel(t *testing.T) {
	_, err := ParseRulesetFile([]byte(`{"checks":[{"id":"hand_hygiene"}]}`))
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.InvalidRulesetFile, customError.Code)
}

func TestParseRulesetFileDuplicateCheckId(t *testing.T) {
	data := []byte(`{"checks":[
		{"id":"hand_hygiene","label":"first"},
		{"id":"hand_hygiene","label":"second"}
	]}`)

	_, err := ParseRulesetFile(data)
	require.Error(t, err)

	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.DuplicateCheckId, customError.Code)
}

func TestValidateComplianceDomain(t *testing.T) {
	assert.NoError(t, ValidateComplianceDomain(view.PatientSafetyDomain))
	assert.NoError(t, ValidateComplianceDomain(view.MedicationManagementDomain))

	err := ValidateComplianceDomain("finance")
	require.Error(t, err)
	customError, ok := err.(*exception.CustomError)
	require.True(t, ok)
	assert.Equal(t, exception.UnknownComplianceDomain, customError.Code)
}

func TestApplyCheckStates(t *testing.T) {
	defs := []view.RulesetCheck{
		{Id: "a", Label: "first", Category: "hygiene"},
		{Id: "b", Label: "second", Weight: floatPtr(2)},
		{Id: "c", Label: "third"},
	}
	states := []view.CheckStateUpdate{
		{Id: "a", State: view.CheckStateSatisfied},
		{Id: "b", State: view.CheckStatePartial},
		{Id: "unknown", State: view.CheckStateSatisfied},
		{Id: "c", State: "bogus"},
	}

	checks := ApplyCheckStates(defs, states)

	require.Len(t, checks, 3)
	assert.Equal(t, view.CheckStateSatisfied, checks[0].State)
	assert.Equal(t, "hygiene", checks[0].Category)
	assert.Equal(t, view.CheckStatePartial, checks[1].State)
	require.NotNil(t, checks[1].Weight)
	assert.Equal(t, float64(2), *checks[1].Weight)
	// unreported and invalid states count as unsatisfied
	assert.Equal(t, view.CheckStateUnsatisfied, checks[2].State)
}

func TestListRulesetsTextFilterEscaped(t *testing.T) {
	repo := &stubRulesetRepository{}
	svc := NewRulesetService(repo, nil)

	_, err := svc.ListRulesets(context.Background(), "wound_care 100%")
	require.NoError(t, err)
	assert.Equal(t, `%wound\_care 100\%%`, repo.listPattern)

	_, err = svc.ListRulesets(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", repo.listPattern)
}
