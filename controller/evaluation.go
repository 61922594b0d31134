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
)

type EvaluationController interface {
	CreateEvaluation(w http.ResponseWriter, r *http.Request)
	GetEvaluation(w http.ResponseWriter, r *http.Request)
	GetEpisodeEvaluation(w http.ResponseWriter, r *http.Request)
	ListFacilityEvaluations(w http.ResponseWriter, r *http.Request)
}

type evaluationControllerImpl struct {
	evaluationService    service.EvaluationService
	authorizationService service.AuthorizationService
}

func NewEvaluationController(evaluationService service.EvaluationService, authorizationService service.AuthorizationService) EvaluationController {
	return &evaluationControllerImpl{
		evaluationService:    evaluationService,
		authorizationService: authorizationService,
	}
}

func (c evaluationControllerImpl) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.MakeUserContext(r)

	defer r.Body.Close()
	var req view.EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}

	result, err := c.evaluationService.CreateEvaluation(ctx, req)
	if err != nil {
		respondWithError(w, "Failed to create evaluation", err)
		return
	}
	respondWithJson(w, http.StatusCreated, result)
}

func (c evaluationControllerImpl) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	evaluationId := getStringParam(r, "evaluation_id")

	ctx := secctx.MakeUserContext(r)
	result, err := c.evaluationService.GetEvaluation(ctx, evaluationId)
	if err != nil {
		respondWithError(w, "Failed to get evaluation", err)
		return
	}
	if result == nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "evaluation", "id": evaluationId},
		})
		return
	}
	respondWithJson(w, http.StatusOK, result)
}

func (c evaluationControllerImpl) GetEpisodeEvaluation(w http.ResponseWriter, r *http.Request) {
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
	rulesetId := r.URL.Query().Get("rulesetId")

	ctx := secctx.MakeUserContext(r)
	result, err := c.evaluationService.GetEpisodeEvaluation(ctx, facilityId, episodeId, rulesetId)
	if err != nil {
		respondWithError(w, "Failed to get episode evaluation", err)
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

func (c evaluationControllerImpl) ListFacilityEvaluations(w http.ResponseWriter, r *http.Request) {
	facilityId, err := getUnescapedStringParam(r, "facility_id")
	if err != nil {
		respondWithError(w, "Failed to read facility id", err)
		return
	}

	limit, err := getLimitQueryParam(r)
	if err != nil {
		respondWithError(w, "Failed to read limit param", err)
		return
	}
	page, err := getPageQueryParam(r)
	if err != nil {
		respondWithError(w, "Failed to read page param", err)
		return
	}

	ctx := secctx.MakeUserContext(r)
	result, err := c.evaluationService.ListFacilityEvaluations(ctx, facilityId, limit, page)
	if err != nil {
		respondWithError(w, "Failed to list evaluations", err)
		return
	}
	respondWithJson(w, http.StatusOK, result)
}
