package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/repository"
	"github.com/carebridge/compliance-service/view"
	log "github.com/sirupsen/logrus"
)

const maxWorstChecks = 10

type QualityReportService interface {
	GetQualityReport(ctx context.Context, facilityId string, periodDays int) (*view.QualityReport, error)
}

func NewQualityReportService(evalRepo repository.EvaluationRepository, probe SystemProbe, cl client.PlatformClient, thresholds view.BandThresholds) QualityReportService {
	return &qualityReportServiceImpl{
		evalRepo:   evalRepo,
		probe:      probe,
		cl:         cl,
		thresholds: thresholds,
	}
}

type qualityReportServiceImpl struct {
	evalRepo   repository.EvaluationRepository
	probe      SystemProbe
	cl         client.PlatformClient
	thresholds view.BandThresholds
}

func (q *qualityReportServiceImpl) GetQualityReport(ctx context.Context, facilityId string, periodDays int) (*view.QualityReport, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -periodDays)

	evaluations, err := q.evalRepo.ListFacilityEvaluationsSince(ctx, facilityId, from)
	if err != nil {
		return nil, err
	}
	outcomes, err := q.evalRepo.ListCheckOutcomesSince(ctx, facilityId, from)
	if err != nil {
		return nil, err
	}

	facilityName := ""
	facility, err := q.cl.GetFacilityById(ctx, facilityId)
	if err != nil {
		log.Warnf("Failed to get facility %s metadata: %v", facilityId, err)
	} else if facility != nil {
		facilityName = facility.Name
	}

	report := view.QualityReport{
		FacilityId:       facilityId,
		FacilityName:     facilityName,
		PeriodFrom:       from,
		PeriodTo:         to,
		EvaluationCount:  len(evaluations),
		OverallScore:     view.ScoreResult{Percentage: 0, Band: view.BandNeedsImprovement},
		BandDistribution: map[view.Band]int{},
		DomainAverages:   []view.DomainAverage{},
		WorstChecks:      aggregateShortfalls(outcomes),
		System:           q.probe.Snapshot(),
	}
	if len(evaluations) == 0 {
		return &report, nil
	}

	report.OverallScore = q.overallScore(evaluations)
	for _, ev := range evaluations {
		report.BandDistribution[ev.Band]++
	}
	report.DomainAverages = q.domainAverages(evaluations)

	return &report, nil
}

// overallScore averages stored percentages rather than re-running checks,
// so historical evaluations keep the band thresholds they were scored with.
func (q *qualityReportServiceImpl) overallScore(evaluations []entity.Evaluation) view.ScoreResult {
	var percentageSum, satisfied, total int
	for _, ev := range evaluations {
		percentageSum += ev.Percentage
		satisfied += ev.SatisfiedCount
		total += ev.TotalCount
	}
	avg := int(math.Round(float64(percentageSum) / float64(len(evaluations))))
	return view.ScoreResult{
		Percentage:     avg,
		Band:           BandForPercentage(avg, q.thresholds),
		SatisfiedCount: satisfied,
		TotalCount:     total,
	}
}

func (q *qualityReportServiceImpl) domainAverages(evaluations []entity.Evaluation) []view.DomainAverage {
	type domainAgg struct {
		sum   int
		count int
	}
	aggs := map[view.ComplianceDomain]*domainAgg{}
	order := make([]view.ComplianceDomain, 0)
	for _, ev := range evaluations {
		if ev.Domain == "" {
			continue
		}
		agg, exists := aggs[ev.Domain]
		if !exists {
			agg = &domainAgg{}
			aggs[ev.Domain] = agg
			order = append(order, ev.Domain)
		}
		agg.sum += ev.Percentage
		agg.count++
	}

	result := make([]view.DomainAverage, 0, len(order))
	for _, domain := range order {
		agg := aggs[domain]
		avg := int(math.Round(float64(agg.sum) / float64(agg.count)))
		result = append(result, view.DomainAverage{
			Domain:            domain,
			AveragePercentage: avg,
			Band:              BandForPercentage(avg, q.thresholds),
			EvaluationCount:   agg.count,
		})
	}
	return result
}

func aggregateShortfalls(outcomes []entity.CheckOutcome) []view.CheckShortfall {
	type checkAgg struct {
		label       string
		satisfied   float64
		occurrences int
	}
	aggs := map[string]*checkAgg{}
	for _, outcome := range outcomes {
		agg, exists := aggs[outcome.CheckId]
		if !exists {
			agg = &checkAgg{label: outcome.Label}
			aggs[outcome.CheckId] = agg
		}
		agg.occurrences++
		switch outcome.State {
		case view.CheckStateSatisfied:
			agg.satisfied += 1
		case view.CheckStatePartial:
			agg.satisfied += 0.5
		}
	}

	shortfalls := make([]view.CheckShortfall, 0, len(aggs))
	for checkId, agg := range aggs {
		rate := agg.satisfied / float64(agg.occurrences)
		if rate >= 1 {
			continue
		}
		shortfalls = append(shortfalls, view.CheckShortfall{
			CheckId:          checkId,
			Label:            agg.label,
			SatisfactionRate: math.Round(rate*1000) / 1000,
			Occurrences:      agg.occurrences,
		})
	}
	sort.Slice(shortfalls, func(i, j int) bool {
		if shortfalls[i].SatisfactionRate != shortfalls[j].SatisfactionRate {
			return shortfalls[i].SatisfactionRate < shortfalls[j].SatisfactionRate
		}
		return shortfalls[i].CheckId < shortfalls[j].CheckId
	})
	if len(shortfalls) > maxWorstChecks {
		shortfalls = shortfalls[:maxWorstChecks]
	}
	return shortfalls
}
