// Copyright 2025 CareBridge Health
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"time"

	"github.com/carebridge/compliance-service/repository"
	"github.com/carebridge/compliance-service/utils"
	log "github.com/sirupsen/logrus"
)

type CleanupService interface {
	Start()
}

func NewCleanupService(evalRepo repository.EvaluationRepository, taskRepo repository.EpisodeEvalTaskRepository, retentionDays int) CleanupService {
	return &cleanupServiceImpl{
		evalRepo:      evalRepo,
		taskRepo:      taskRepo,
		retentionDays: retentionDays,
	}
}

type cleanupServiceImpl struct {
	evalRepo      repository.EvaluationRepository
	taskRepo      repository.EpisodeEvalTaskRepository
	retentionDays int
}

func (c *cleanupServiceImpl) Start() {
	utils.SafeAsync(func() {
		c.cleanupOldEntities()
		t := time.NewTicker(time.Hour * 24)
		for range t.C {
			c.cleanupOldEntities()
		}
	})
}

func (c *cleanupServiceImpl) cleanupOldEntities() {
	ctx := context.Background()
	before := time.Now().AddDate(0, 0, -c.retentionDays)

	deletedEvaluations, err := c.evalRepo.DeleteEvaluationsBefore(ctx, before)
	if err != nil {
		log.Errorf("Failed to delete evaluations older than %s: %s", before.Format(time.RFC3339), err)
	}
	deletedTasks, err := c.taskRepo.DeleteTerminalTasksBefore(ctx, before)
	if err != nil {
		log.Errorf("Failed to delete finished tasks older than %s: %s", before.Format(time.RFC3339), err)
	}
	if deletedEvaluations > 0 || deletedTasks > 0 {
		log.Infof("Retention cleanup removed %d evaluations and %d tasks older than %s",
			deletedEvaluations, deletedTasks, before.Format(time.RFC3339))
	}
}
