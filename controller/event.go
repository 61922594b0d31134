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

package controller

import (
	"encoding/json"
	"net/http"

	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/service"
	"github.com/carebridge/compliance-service/view"
	log "github.com/sirupsen/logrus"
)

type EventController interface {
	HandleEpisodeReadyEvent(w http.ResponseWriter, r *http.Request)
	GetEpisodeStatus(w http.ResponseWriter, r *http.Request)
	GetRecordData(w http.ResponseWriter, r *http.Request)
}

func NewEventController(episodeTaskProcessor service.EpisodeTaskProcessor) EventController {
	return &eventControllerImpl{episodeTaskProcessor: episodeTaskProcessor}
}

type eventControllerImpl struct {
	episodeTaskProcessor service.EpisodeTaskProcessor
}

func (c eventControllerImpl) HandleEpisodeReadyEvent(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.MakeUserContext(r)

	defer r.Body.Close()
	var event view.EpisodeReadyEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	if event.EventId == "" || event.FacilityId == "" || event.EpisodeId == "" {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "eventId, facilityId, episodeId"},
		})
		return
	}

	taskId, err := c.episodeTaskProcessor.CreateTaskFromEvent(ctx, event)
	if err != nil {
		respondWithError(w, "Failed to create episode evaluation task", err)
		return
	}

	err = c.episodeTaskProcessor.StartEpisodeEvalTask(taskId)
	if err != nil {
		respondWithError(w, "Failed to start episode evaluation task", err)
		return
	}

	log.Debugf("Episode evaluation task started for episode %s, taskId is: %s", event.EpisodeId, taskId)

	w.WriteHeader(http.StatusAccepted)
}

func (c eventControllerImpl) GetEpisodeStatus(w http.ResponseWriter, r *http.Request) {
	episodeId, err := getUnescapedStringParam(r, "episode_id")
	if err != nil {
		respondWithError(w, "Failed to read episode id", err)
		return
	}

	ctx := secctx.MakeUserContext(r)
	result, err := c.episodeTaskProcessor.GetEpisodeStatus(ctx, episodeId)
	if err != nil {
		respondWithError(w, "Failed to get episode status", err)
		return
	}
	if result == nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "episode evaluation", "id": episodeId},
		})
		return
	}
	respondWithJson(w, http.StatusOK, result)
}

func (c eventControllerImpl) GetRecordData(w http.ResponseWriter, r *http.Request) {
	facilityId, err := getUnescapedStringParam(r, "facility_id")
	if err != nil {
		respondWithError(w, "Failed to read facility id", err)
		return
	}
	episodeId, err := getUnescapedStringParam(r, "episode_id")
	if err != nil {
		respondWithError(w, "Failed to read episode id", err)
		return
	}
	recordSlug, err := getUnescapedStringParam(r, "record_slug")
	if err != nil {
		respondWithError(w, "Failed to read record slug", err)
		return
	}

	ctx := secctx.MakeUserContext(r)
	data, err := c.episodeTaskProcessor.GetRecordData(ctx, facilityId, episodeId, recordSlug)
	if err != nil {
		respondWithError(w, "Failed to get record data", err)
		return
	}
	if data == nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "clinical record", "id": recordSlug},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
