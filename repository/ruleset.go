package repository

import (
	"context"
	"errors"
	"time"

	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/view"
	"github.com/go-pg/pg/v10"
)

type RulesetRepository interface {
	SaveRuleset(ctx context.Context, ent entity.Ruleset) error
	GetRulesetById(ctx context.Context, id string) (*entity.Ruleset, error)
	GetRulesetByChecksum(ctx context.Context, domain view.ComplianceDomain, checksum string) (*entity.Ruleset, error)
	GetActiveRuleset(ctx context.Context, domain view.ComplianceDomain) (*entity.Ruleset, error)
	ListRulesets(ctx context.Context, namePattern string) ([]entity.Ruleset, error)
	ActivateRuleset(ctx context.Context, id string, activatedBy string) error
	GetActivationHistory(ctx context.Context, id string) ([]entity.RulesetActivationHistory, error)
	DeleteRuleset(ctx context.Context, id string) error
}

func NewRulesetRepository(cp db.ConnectionProvider) RulesetRepository {
	return &rulesetRepositoryImpl{cp: cp}
}

type rulesetRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (r *rulesetRepositoryImpl) SaveRuleset(ctx context.Context, ent entity.Ruleset) error {
	_, err := r.cp.GetConnection().ModelContext(ctx, &ent).Insert()
	return err
}

func (r *rulesetRepositoryImpl) GetRulesetById(ctx context.Context, id string) (*entity.Ruleset, error) {
	var ruleset entity.Ruleset
	err := r.cp.GetConnection().ModelContext(ctx, &ruleset).Where("id = ?", id).Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ruleset, nil
}

func (r *rulesetRepositoryImpl) GetRulesetByChecksum(ctx context.Context, domain view.ComplianceDomain, checksum string) (*entity.Ruleset, error) {
	var ruleset entity.Ruleset
	err := r.cp.GetConnection().ModelContext(ctx, &ruleset).
		Where("domain = ?", domain).
		Where("checksum = ?", checksum).
		Limit(1).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ruleset, nil
}

func (r *rulesetRepositoryImpl) GetActiveRuleset(ctx context.Context, domain view.ComplianceDomain) (*entity.Ruleset, error) {
	var ruleset entity.Ruleset
	err := r.cp.GetConnection().ModelContext(ctx, &ruleset).
		Where("domain = ?", domain).
		Where("status = ?", view.RulesetStatusActive).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ruleset, nil
}

func (r *rulesetRepositoryImpl) ListRulesets(ctx context.Context, namePattern string) ([]entity.Ruleset, error) {
	var rulesets []entity.Ruleset
	query := r.cp.GetConnection().ModelContext(ctx, &rulesets).
		Order("created_at DESC")
	if namePattern != "" {
		query = query.Where("name ilike ?", namePattern)
	}
	err := query.Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rulesets, nil
}

func (r *rulesetRepositoryImpl) ActivateRuleset(ctx context.Context, id string, activatedBy string) error {
	return r.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		var ruleset entity.Ruleset
		err := tx.ModelContext(ctx, &ruleset).Where("id = ?", id).Select()
		if err != nil {
			return err
		}

		// previously active ruleset for the same domain becomes inactive
		_, err = tx.ModelContext(ctx, (*entity.Ruleset)(nil)).
			Set("status = ?", view.RulesetStatusInactive).
			Where("domain = ?", ruleset.Domain).
			Where("status = ?", view.RulesetStatusActive).
			Update()
		if err != nil {
			return err
		}

		_, err = tx.ModelContext(ctx, (*entity.Ruleset)(nil)).
			Set("status = ?", view.RulesetStatusActive).
			Set("can_be_deleted = ?", false).
			Where("id = ?", id).
			Update()
		if err != nil {
			return err
		}

		history := entity.RulesetActivationHistory{
			RulesetId:   id,
			ActivatedAt: time.Now(),
			ActivatedBy: activatedBy,
		}
		_, err = tx.ModelContext(ctx, &history).Insert()
		return err
	})
}

func (r *rulesetRepositoryImpl) GetActivationHistory(ctx context.Context, id string) ([]entity.RulesetActivationHistory, error) {
	var records []entity.RulesetActivationHistory
	err := r.cp.GetConnection().ModelContext(ctx, &records).
		Where("ruleset_id = ?", id).
		Order("activated_at DESC").
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

func (r *rulesetRepositoryImpl) DeleteRuleset(ctx context.Context, id string) error {
	_, err := r.cp.GetConnection().ModelContext(ctx, (*entity.Ruleset)(nil)).
		Where("id = ?", id).
		Delete()
	return err
}
