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

type IncidentController interface {
	ClassifyIncident(w http.ResponseWriter, r *http.Request)
	GetIncident(w http.ResponseWriter, r *http.Request)
	GetCategorySummary(w http.ResponseWriter, r *http.Request)
}

func NewIncidentController(incidentService service.IncidentService, authorizationService service.AuthorizationService) IncidentController {
	return &incidentControllerImpl{
		incidentService:      incidentService,
		authorizationService: authorizationService,
	}
}

type incidentControllerImpl struct {
	incidentService      service.IncidentService
	authorizationService service.AuthorizationService
}

func (c incidentControllerImpl) ClassifyIncident(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.MakeUserContext(r)

	defer r.Body.Close()
	var req view.IncidentClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}

	result, err := c.incidentService.ClassifyIncident(ctx, req)
	if err != nil {
		respondWithError(w, "Failed to classify incident", err)
		return
	}
	respondWithJson(w, http.StatusCreated, result)
}

func (c incidentControllerImpl) GetIncident(w http.ResponseWriter, r *http.Request) {
	incidentId := getStringParam(r, "incident_id")

	ctx := secctx.MakeUserContext(r)
	result, err := c.incidentService.GetIncident(ctx, incidentId)
	if err != nil {
		respondWithError(w, "Failed to get incident", err)
		return
	}
	respondWithJson(w, http.StatusOK, result)
}

func (c incidentControllerImpl) GetCategorySummary(w http.ResponseWriter, r *http.Request) {
	facilityId, err := getUnescapedStringParam(r, "facility_id")
	if err != nil {
		respondWithError(w, "Failed to read facility id", err)
		return
	}

	ctx := secctx.MakeUserContext(r)
	result, err := c.incidentService.GetCategorySummary(ctx, facilityId)
	if err != nil {
		respondWithError(w, "Failed to get incident category summary", err)
		return
	}
	respondWithJson(w, http.StatusOK, result)
}
