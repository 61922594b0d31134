package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/view"
	"github.com/go-pg/pg/v10"
)

type EpisodeEvalTaskRepository interface {
	SaveEpisodeTask(ctx context.Context, ent entity.EpisodeEvalTask) error
	GetTaskById(ctx context.Context, taskId string) (*entity.EpisodeEvalTask, error)
	GetLatestTaskForEpisode(ctx context.Context, episodeId string) (*entity.EpisodeEvalTask, error)
	UpdateStatusAndDetails(ctx context.Context, taskId string, status view.TaskStatus, details string) error
	FindFreeEpisodeTask(ctx context.Context, executorId string) (*entity.EpisodeEvalTask, error)
	GetWaitingForRecordsTasks(ctx context.Context, executorId string) ([]entity.EpisodeEvalTask, error)
	DeleteTerminalTasksBefore(ctx context.Context, before time.Time) (int, error)
}

func NewEpisodeEvalTaskRepository(cp db.ConnectionProvider) EpisodeEvalTaskRepository {
	return &episodeEvalTaskRepositoryImpl{cp: cp}
}

type episodeEvalTaskRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (r *episodeEvalTaskRepositoryImpl) SaveEpisodeTask(ctx context.Context, ent entity.EpisodeEvalTask) error {
	_, err := r.cp.GetConnection().ModelContext(ctx, &ent).Insert()
	if err != nil {
		var pgerr pg.Error
		if errors.As(err, &pgerr) {
			if pgerr.Field('C') == "23505" && strings.Contains(err.Error(), "episode_eval_task_event_id_unique") {
				return &exception.CustomError{
					Status:  http.StatusInternalServerError,
					Code:    exception.DuplicateEvent,
					Message: exception.DuplicateEventMsg,
					Params:  map[string]interface{}{"event_id": ent.EventId},
				}
			}
		}
		return err
	}
	return nil
}

func (r *episodeEvalTaskRepositoryImpl) GetTaskById(ctx context.Context, taskId string) (*entity.EpisodeEvalTask, error) {
	var task entity.EpisodeEvalTask
	err := r.cp.GetConnection().ModelContext(ctx, &task).
		Where("id = ?", taskId).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *episodeEvalTaskRepositoryImpl) GetLatestTaskForEpisode(ctx context.Context, episodeId string) (*entity.EpisodeEvalTask, error) {
	var task entity.EpisodeEvalTask
	err := r.cp.GetConnection().ModelContext(ctx, &task).
		Where("episode_id = ?", episodeId).
		Order("created_at DESC").
		Limit(1).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *episodeEvalTaskRepositoryImpl) UpdateStatusAndDetails(ctx context.Context, taskId string, status view.TaskStatus, details string) error {
	_, err := r.cp.GetConnection().ModelContext(ctx, (*entity.EpisodeEvalTask)(nil)).
		Set("status = ?", status).
		Set("details = ?", details).
		Set("last_active = ?", time.Now()).
		Where("id = ?", taskId).
		Update()
	return err
}

const taskKeepaliveTimeoutSec = 30

var queryFreeEpisodeTask = fmt.Sprintf("select * from episode_eval_task t where "+
	"(t.status='%s' or (t.status='%s' and t.last_active < (now() - interval '%d seconds'))) "+
	"order by t.created_at ASC limit 1 for no key update skip locked", view.StatusNotStarted, view.StatusProcessing, taskKeepaliveTimeoutSec)

func (r *episodeEvalTaskRepositoryImpl) FindFreeEpisodeTask(ctx context.Context, executorId string) (*entity.EpisodeEvalTask, error) {
	var result *entity.EpisodeEvalTask

	err := r.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		var ents []entity.EpisodeEvalTask

		_, err := tx.Query(&ents, queryFreeEpisodeTask)
		if err != nil {
			if err == pg.ErrNoRows {
				return nil
			}
			return fmt.Errorf("failed to find free episode task: %w", err)
		}
		if len(ents) == 0 {
			return nil
		}
		result = &ents[0]

		if result.Status == view.StatusProcessing {
			result.RestartCount += 1
		}

		result.Status = view.StatusProcessing
		result.ExecutorId = executorId

		_, err = tx.Model(result).
			Set("status = ?status").
			Set("executor_id = ?executor_id").
			Set("restart_count = ?restart_count").
			Set("last_active = now()").
			Where("id = ?", result.Id).
			Update()
		if err != nil {
			return fmt.Errorf("unable to update episode task status during takeTask: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *episodeEvalTaskRepositoryImpl) GetWaitingForRecordsTasks(ctx context.Context, executorId string) ([]entity.EpisodeEvalTask, error) {
	var tasks []entity.EpisodeEvalTask
	err := r.cp.GetConnection().ModelContext(ctx, &tasks).
		Where("status = ?", view.StatusWaitingForRecords).
		Where("executor_id = ?", executorId).
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tasks, nil
}

func (r *episodeEvalTaskRepositoryImpl) DeleteTerminalTasksBefore(ctx context.Context, before time.Time) (int, error) {
	deleted := 0
	err := r.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		var taskIds []string
		err := tx.ModelContext(ctx, (*entity.EpisodeEvalTask)(nil)).
			Column("id").
			Where("status IN (?)", pg.In([]view.TaskStatus{view.StatusSuccess, view.StatusError})).
			Where("created_at < ?", before).
			Select(&taskIds)
		if err != nil {
			return err
		}
		if len(taskIds) == 0 {
			return nil
		}

		_, err = tx.ModelContext(ctx, (*entity.RecordEvalTask)(nil)).
			Where("episode_eval_task_id IN (?)", pg.In(taskIds)).
			Delete()
		if err != nil {
			return err
		}

		res, err := tx.ModelContext(ctx, (*entity.EpisodeEvalTask)(nil)).
			Where("id IN (?)", pg.In(taskIds)).
			Delete()
		if err != nil {
			return err
		}
		deleted = res.RowsAffected()
		return nil
	})
	return deleted, err
}
