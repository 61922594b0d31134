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
	"fmt"
	"io"
	"net/http"

	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/service"
	"github.com/carebridge/compliance-service/view"
	log "github.com/sirupsen/logrus"
)

type RulesetController interface {
	CreateRuleset(w http.ResponseWriter, r *http.Request)
	ActivateRuleset(w http.ResponseWriter, r *http.Request)
	ListRulesets(w http.ResponseWriter, r *http.Request)
	GetRuleset(w http.ResponseWriter, r *http.Request)
	GetRulesetData(w http.ResponseWriter, r *http.Request)
	GetRulesetActivationHistory(w http.ResponseWriter, r *http.Request)
	DeleteRuleset(w http.ResponseWriter, r *http.Request)
}

type rulesetControllerImpl struct {
	rulesetService       service.RulesetService
	authorizationService service.AuthorizationService
}

func NewRulesetController(rulesetService service.RulesetService, authorizationService service.AuthorizationService) RulesetController {
	return &rulesetControllerImpl{
		rulesetService:       rulesetService,
		authorizationService: authorizationService,
	}
}

func (c rulesetControllerImpl) CreateRuleset(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.MakeUserContext(r)
	sufficientPrivileges, err := c.authorizationService.HasManagementPermission(ctx)
	if err != nil {
		respondWithError(w, "Failed to check permissions", err)
		return
	}
	if !sufficientPrivileges {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusForbidden,
			Code:    exception.InsufficientPrivileges,
			Message: exception.InsufficientPrivilegesMsg,
		})
		return
	}

	err = r.ParseMultipartForm(1024 * 1024)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	defer func() {
		err := r.MultipartForm.RemoveAll()
		if err != nil {
			log.Debugf("failed to remove temporal data: %+v", err)
		}
	}()

	name := r.FormValue("rulesetName")
	if name == "" {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "rulesetName"},
		})
		return
	}

	domainStr := r.FormValue("domain")
	if domainStr == "" {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "domain"},
		})
		return
	}

	domain := view.ComplianceDomain(domainStr)
	err = service.ValidateComplianceDomain(domain)
	if err != nil {
		respondWithError(w, "incorrect compliance domain", err)
		return
	}

	var data []byte
	sourcesFile, fileHeader, err := r.FormFile("rulesetFile")
	if err != nil {
		if err == http.ErrMissingFile {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusBadRequest,
				Code:    exception.RequiredParamsMissing,
				Message: exception.RequiredParamsMissingMsg,
				Params:  map[string]interface{}{"params": "rulesetFile"},
			})
			return
		}
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.IncorrectMultipartFile,
			Message: exception.IncorrectMultipartFileMsg,
			Debug:   err.Error()})
		return
	}
	data, err = io.ReadAll(sourcesFile)
	closeErr := sourcesFile.Close()
	if closeErr != nil {
		log.Debugf("failed to close temporal file: %+v", err)
	}
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.IncorrectMultipartFile,
			Message: exception.IncorrectMultipartFileMsg,
			Debug:   err.Error()})
		return
	}

	result, err := c.rulesetService.CreateRuleset(ctx, name, domain, fileHeader.Filename, data)
	if err != nil {
		respondWithError(w, "Failed to create ruleset", err)
		return
	}
	respondWithJson(w, http.StatusCreated, result)
}

func (c rulesetControllerImpl) ActivateRuleset(w http.ResponseWriter, r *http.Request) {
	rulesetId := getStringParam(r, "ruleset_id")

	ctx := secctx.MakeUserContext(r)
	sufficientPrivileges, err := c.authorizationService.HasManagementPermission(ctx)
	if err != nil {
		respondWithError(w, "Failed to check permissions", err)
		return
	}
	if !sufficientPrivileges {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusForbidden,
			Code:    exception.InsufficientPrivileges,
			Message: exception.InsufficientPrivilegesMsg,
		})
		return
	}

	err = c.rulesetService.ActivateRuleset(ctx, rulesetId)
	if err != nil {
		respondWithError(w, "Failed to activate ruleset", err)
		return
	}
}

func (c rulesetControllerImpl) ListRulesets(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.MakeUserContext(r)
	sufficientPrivileges, err := c.authorizationService.HasReadPermission(ctx)
	if err != nil {
		respondWithError(w, "Failed to check permissions", err)
		return
	}
	if !sufficientPrivileges {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusForbidden,
			Code:    exception.InsufficientPrivileges,
			Message: exception.InsufficientPrivilegesMsg,
		})
		return
	}

	textFilter := r.URL.Query().Get("textFilter")
	result, err := c.rulesetService.ListRulesets(ctx, textFilter)
	if err != nil {
		respondWithError(w, "Failed to list rulesets", err)
		return
	}
	respondWithJson(w, http.StatusOK, result)
}

func (c rulesetControllerImpl) GetRuleset(w http.ResponseWriter, r *http.Request) {
	rulesetId := getStringParam(r, "ruleset_id")

	ctx := secctx.MakeUserContext(r)
	sufficientPrivileges, err := c.authorizationService.HasReadPermission(ctx)
	if err != nil {
		respondWithError(w, "Failed to check permissions", err)
		return
	}
	if !sufficientPrivileges {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusForbidden,
			Code:    exception.InsufficientPrivileges,
			Message: exception.InsufficientPrivilegesMsg,
		})
		return
	}

	result, err := c.rulesetService.GetRuleset(ctx, rulesetId)
	if err != nil {
		respondWithError(w, "Failed to get ruleset", err)
		return
	}
	if result == nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "ruleset", "id": rulesetId},
		})
		return
	}
	respondWithJson(w, http.StatusOK, result)
}

func (c rulesetControllerImpl) GetRulesetData(w http.ResponseWriter, r *http.Request) {
	rulesetId := getStringParam(r, "ruleset_id")
	// no auth checks by design
	disposition := r.URL.Query().Get("disposition")
	if disposition == "" {
		disposition = "inline"
	}

	if disposition != "attachment" && disposition != "inline" {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": "disposition", "value": disposition},
		})
		return
	}

	data, filename, err := c.rulesetService.GetRulesetData(r.Context(), rulesetId)
	if err != nil {
		respondWithError(w, "Failed to get ruleset data", err)
		return
	}
	if data == nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.EntityNotFound,
			Message: exception.EntityNotFoundMsg,
			Params:  map[string]interface{}{"entity": "ruleset", "id": rulesetId},
		})
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, filename))
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (c rulesetControllerImpl) GetRulesetActivationHistory(w http.ResponseWriter, r *http.Request) {
	rulesetId := getStringParam(r, "ruleset_id")

	ctx := secctx.MakeUserContext(r)
	sufficientPrivileges, err := c.authorizationService.HasReadPermission(ctx)
	if err != nil {
		respondWithError(w, "Failed to check permissions", err)
		return
	}
	if !sufficientPrivileges {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusForbidden,
			Code:    exception.InsufficientPrivileges,
			Message: exception.InsufficientPrivilegesMsg,
		})
		return
	}

	records, err := c.rulesetService.GetActivationHistory(ctx, rulesetId)
	if err != nil {
		respondWithError(w, "Failed to get activation history", err)
		return
	}

	result := view.ActivationHistoryResponse{
		Id:                rulesetId,
		ActivationHistory: records,
	}

	respondWithJson(w, http.StatusOK, result)
}

func (c rulesetControllerImpl) DeleteRuleset(w http.ResponseWriter, r *http.Request) {
	rulesetId := getStringParam(r, "ruleset_id")

	ctx := secctx.MakeUserContext(r)

	sufficientPrivileges, err := c.authorizationService.HasManagementPermission(ctx)
	if err != nil {
		respondWithError(w, "Failed to check permissions", err)
		return
	}
	if !sufficientPrivileges {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusForbidden,
			Code:    exception.InsufficientPrivileges,
			Message: exception.InsufficientPrivilegesMsg,
		})
		return
	}

	err = c.rulesetService.DeleteRuleset(ctx, rulesetId)
	if err != nil {
		respondWithError(w, "Failed to delete ruleset", err)
		return
	}
}
