package repository

import (
	"context"
	"errors"

	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/view"
	"github.com/go-pg/pg/v10"
)

type IncidentRepository interface {
	SaveIncident(ctx context.Context, ent entity.Incident) error
	GetIncidentById(ctx context.Context, id string) (*entity.Incident, error)
	GetCategoryCounts(ctx context.Context, facilityId string) ([]view.IncidentCategoryCount, error)
}

func NewIncidentRepository(cp db.ConnectionProvider) IncidentRepository {
	return &incidentRepositoryImpl{cp: cp}
}

type incidentRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (r *incidentRepositoryImpl) SaveIncident(ctx context.Context, ent entity.Incident) error {
	_, err := r.cp.GetConnection().ModelContext(ctx, &ent).Insert()
	return err
}

func (r *incidentRepositoryImpl) GetIncidentById(ctx context.Context, id string) (*entity.Incident, error) {
	var incident entity.Incident
	err := r.cp.GetConnection().ModelContext(ctx, &incident).Where("id = ?", id).Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepositoryImpl) GetCategoryCounts(ctx context.Context, facilityId string) ([]view.IncidentCategoryCount, error) {
	var counts []view.IncidentCategoryCount
	err := r.cp.GetConnection().ModelContext(ctx, (*entity.Incident)(nil)).
		Column("category").
		ColumnExpr("count(*) AS count").
		Where("facility_id = ?", facilityId).
		Group("category").
		Order("count DESC").
		Select(&counts)
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return counts, nil
}
