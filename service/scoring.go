package service

import (
	"math"

	"github.com/carebridge/compliance-service/view"
)

// EvaluateChecks computes the aggregate compliance score for a set of checks.
// A satisfied check contributes its full weight, a partial check half of it.
// Checks with non-positive weight are excluded entirely. The function is pure
// and always returns a result, an empty set scores zero.
func EvaluateChecks(checks []view.Check, thresholds view.BandThresholds) view.ScoreResult {
	var numerator, denominator float64
	satisfiedCount := 0
	totalCount := 0

	for _, check := range checks {
		weight := checkWeight(check)
		if weight <= 0 {
			continue
		}
		totalCount++
		denominator += weight
		switch check.State {
		case view.CheckStateSatisfied:
			numerator += weight
			satisfiedCount++
		case view.CheckStatePartial:
			numerator += weight * 0.5
		}
	}

	if denominator == 0 {
		return view.ScoreResult{
			Percentage:     0,
			Band:           view.BandNeedsImprovement,
			SatisfiedCount: 0,
			TotalCount:     0,
		}
	}

	percentage := int(math.Round(100 * numerator / denominator))

	return view.ScoreResult{
		Percentage:     percentage,
		Band:           BandForPercentage(percentage, thresholds),
		SatisfiedCount: satisfiedCount,
		TotalCount:     totalCount,
	}
}

// EvaluateByCategory scores each category independently, preserving the
// order in which categories first appear in the check list.
func EvaluateByCategory(checks []view.Check, thresholds view.BandThresholds) []view.CategoryScore {
	var order []string
	grouped := make(map[string][]view.Check)

	for _, check := range checks {
		category := check.Category
		if category == "" {
			category = "uncategorized"
		}
		if _, exists := grouped[category]; !exists {
			order = append(order, category)
		}
		grouped[category] = append(grouped[category], check)
	}

	result := make([]view.CategoryScore, 0, len(order))
	for _, category := range order {
		result = append(result, view.CategoryScore{
			Category: category,
			Score:    EvaluateChecks(grouped[category], thresholds),
		})
	}
	return result
}

func BandForPercentage(percentage int, thresholds view.BandThresholds) view.Band {
	switch {
	case percentage >= thresholds.Excellent:
		return view.BandExcellent
	case percentage >= thresholds.Good:
		return view.BandGood
	case percentage >= thresholds.Acceptable:
		return view.BandAcceptable
	default:
		return view.BandNeedsImprovement
	}
}

func checkWeight(check view.Check) float64 {
	if check.Weight == nil {
		return 1
	}
	if *check.Weight <= 0 {
		return 0
	}
	return *check.Weight
}
