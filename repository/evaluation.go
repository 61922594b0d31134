package repository

import (
	"context"
	"errors"
	"time"

	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/entity"
	"github.com/go-pg/pg/v10"
)

type EvaluationRepository interface {
	SaveEvaluation(ctx context.Context, ent entity.Evaluation, outcomes []entity.CheckOutcome) error
	GetEvaluationById(ctx context.Context, id string) (*entity.Evaluation, error)
	GetLatestEvaluation(ctx context.Context, facilityId, episodeId, rulesetId string) (*entity.Evaluation, error)
	ListFacilityEvaluations(ctx context.Context, facilityId string, limit, offset int) ([]entity.Evaluation, error)
	ListFacilityEvaluationsSince(ctx context.Context, facilityId string, since time.Time) ([]entity.Evaluation, error)
	ListCheckOutcomesSince(ctx context.Context, facilityId string, since time.Time) ([]entity.CheckOutcome, error)
	ListEpisodeCheckOutcomes(ctx context.Context, episodeId string) ([]entity.CheckOutcome, error)
	DeleteEvaluationsBefore(ctx context.Context, before time.Time) (int, error)
}

func NewEvaluationRepository(cp db.ConnectionProvider) EvaluationRepository {
	return &evaluationRepositoryImpl{cp: cp}
}

type evaluationRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (r *evaluationRepositoryImpl) SaveEvaluation(ctx context.Context, ent entity.Evaluation, outcomes []entity.CheckOutcome) error {
	return r.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		_, err := tx.ModelContext(ctx, &ent).Insert()
		if err != nil {
			return err
		}
		if len(outcomes) > 0 {
			_, err = tx.ModelContext(ctx, &outcomes).Insert()
		}
		return err
	})
}

func (r *evaluationRepositoryImpl) GetEvaluationById(ctx context.Context, id string) (*entity.Evaluation, error) {
	var evaluation entity.Evaluation
	err := r.cp.GetConnection().ModelContext(ctx, &evaluation).Where("id = ?", id).Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepositoryImpl) GetLatestEvaluation(ctx context.Context, facilityId, episodeId, rulesetId string) (*entity.Evaluation, error) {
	var evaluation entity.Evaluation
	err := r.cp.GetConnection().ModelContext(ctx, &evaluation).
		Where("facility_id = ?", facilityId).
		Where("episode_id = ?", episodeId).
		Where("ruleset_id = ?", rulesetId).
		Order("evaluated_at DESC").
		Limit(1).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepositoryImpl) ListFacilityEvaluations(ctx context.Context, facilityId string, limit, offset int) ([]entity.Evaluation, error) {
	var evaluations []entity.Evaluation
	err := r.cp.GetConnection().ModelContext(ctx, &evaluations).
		Where("facility_id = ?", facilityId).
		Order("evaluated_at DESC").
		Limit(limit).
		Offset(offset).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return evaluations, nil
}

func (r *evaluationRepositoryImpl) ListFacilityEvaluationsSince(ctx context.Context, facilityId string, since time.Time) ([]entity.Evaluation, error) {
	var evaluations []entity.Evaluation
	err := r.cp.GetConnection().ModelContext(ctx, &evaluations).
		Where("facility_id = ?", facilityId).
		Where("evaluated_at >= ?", since).
		Order("evaluated_at ASC").
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return evaluations, nil
}

func (r *evaluationRepositoryImpl) ListCheckOutcomesSince(ctx context.Context, facilityId string, since time.Time) ([]entity.CheckOutcome, error) {
	var outcomes []entity.CheckOutcome
	err := r.cp.GetConnection().ModelContext(ctx, &outcomes).
		Join("JOIN evaluation AS e ON e.id = check_outcome.evaluation_id").
		Where("e.facility_id = ?", facilityId).
		Where("e.evaluated_at >= ?", since).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return outcomes, nil
}

func (r *evaluationRepositoryImpl) ListEpisodeCheckOutcomes(ctx context.Context, episodeId string) ([]entity.CheckOutcome, error) {
	var outcomes []entity.CheckOutcome
	err := r.cp.GetConnection().ModelContext(ctx, &outcomes).
		Join("JOIN evaluation AS e ON e.id = check_outcome.evaluation_id").
		Where("e.episode_id = ?", episodeId).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return outcomes, nil
}

func (r *evaluationRepositoryImpl) DeleteEvaluationsBefore(ctx context.Context, before time.Time) (int, error) {
	deleted := 0
	err := r.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		var evaluationIds []string
		err := tx.ModelContext(ctx, (*entity.Evaluation)(nil)).
			Column("id").
			Where("evaluated_at < ?", before).
			Select(&evaluationIds)
		if err != nil {
			return err
		}
		if len(evaluationIds) == 0 {
			return nil
		}

		_, err = tx.ModelContext(ctx, (*entity.CheckOutcome)(nil)).
			Where("evaluation_id IN (?)", pg.In(evaluationIds)).
			Delete()
		if err != nil {
			return err
		}

		res, err := tx.ModelContext(ctx, (*entity.Evaluation)(nil)).
			Where("id IN (?)", pg.In(evaluationIds)).
			Delete()
		if err != nil {
			return err
		}
		deleted = res.RowsAffected()
		return nil
	})
	return deleted, err
}
