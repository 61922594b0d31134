package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/entity"
	"github.com/carebridge/compliance-service/view"
	"github.com/go-pg/pg/v10"
)

type RecordEvalTaskRepository interface {
	SaveRecordTasksAndUpdEpisode(ctx context.Context, ents []entity.RecordEvalTask, episodeTaskId string) error
	FindFreeRecordTask(ctx context.Context, executorId string) (*entity.RecordEvalTask, error)
	GetTasksForEpisodeTask(ctx context.Context, episodeTaskId string) ([]entity.RecordEvalTask, error)
	CompleteRecordTask(ctx context.Context, taskId string, status view.TaskStatus, details string, evalTimeMs int) error
}

func NewRecordEvalTaskRepository(cp db.ConnectionProvider) RecordEvalTaskRepository {
	return &recordEvalTaskRepositoryImpl{cp: cp}
}

type recordEvalTaskRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (r *recordEvalTaskRepositoryImpl) SaveRecordTasksAndUpdEpisode(ctx context.Context, ents []entity.RecordEvalTask, episodeTaskId string) error {
	return r.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		_, err := tx.Model(&ents).Insert()
		if err != nil {
			return err
		}

		allFailed := true
		for _, ent := range ents {
			if ent.Status != view.StatusError {
				allFailed = false
				break
			}
		}

		episodeStatus := view.StatusWaitingForRecords
		if allFailed {
			episodeStatus = view.StatusError
		}

		_, err = tx.Model((*entity.EpisodeEvalTask)(nil)).
			Set("status = ?", episodeStatus).
			Set("last_active = ?", time.Now()).
			Where("id = ?", episodeTaskId).
			Update()
		return err
	})
}

var queryFreeRecordTask = fmt.Sprintf("select * from record_eval_task t where "+
	"(t.status='%s' or (t.status='%s' and t.last_active < (now() - interval '%d seconds'))) "+
	"order by t.created_at ASC limit 1 for no key update skip locked", view.StatusNotStarted, view.StatusProcessing, taskKeepaliveTimeoutSec)

func (r *recordEvalTaskRepositoryImpl) FindFreeRecordTask(ctx context.Context, executorId string) (*entity.RecordEvalTask, error) {
	var result *entity.RecordEvalTask
	var err error

	for {
		taskFailed := false
		err = r.cp.GetConnection().RunInTransaction(context.Background(), func(tx *pg.Tx) error {
			var ents []entity.RecordEvalTask

			_, err := tx.Query(&ents, queryFreeRecordTask)
			if err != nil {
				if err == pg.ErrNoRows {
					return nil
				}
				return fmt.Errorf("failed to find free record task: %w", err)
			}
			if len(ents) == 0 {
				return nil
			}
			result = &ents[0]

			if result.RestartCount >= 2 {
				_, err := tx.Model(result).
					Where("id = ?", result.Id).
					Set("status = ?", view.StatusError).
					Set("details = ?", fmt.Sprintf("Restart count exceeded limit. Details: %v", result.Details)).
					Set("last_active = now()").
					Update()
				if err != nil {
					return err
				}
				taskFailed = true
				return nil
			}

			isFirstRun := result.Status == view.StatusNotStarted
			if !isFirstRun {
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
				return fmt.Errorf("unable to update record task status during takeTask: %w", err)
			}
			return nil
		})
		if taskFailed {
			result = nil
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *recordEvalTaskRepositoryImpl) GetTasksForEpisodeTask(ctx context.Context, episodeTaskId string) ([]entity.RecordEvalTask, error) {
	var tasks []entity.RecordEvalTask
	err := r.cp.GetConnection().ModelContext(ctx, &tasks).
		Where("episode_eval_task_id = ?", episodeTaskId).
		Order("created_at ASC").
		Select()
	if err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tasks, nil
}

func (r *recordEvalTaskRepositoryImpl) CompleteRecordTask(ctx context.Context, taskId string, status view.TaskStatus, details string, evalTimeMs int) error {
	_, err := r.cp.GetConnection().ModelContext(ctx, (*entity.RecordEvalTask)(nil)).
		Set("status = ?", status).
		Set("details = ?", details).
		Set("eval_time_ms = ?", evalTimeMs).
		Set("last_active = now()").
		Where("id = ?", taskId).
		Update()
	return err
}
