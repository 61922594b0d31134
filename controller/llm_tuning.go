package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/service"
	"github.com/carebridge/compliance-service/view"
)

type LLMTuningController interface {
	UpdateClassifyPrompt(w http.ResponseWriter, r *http.Request)
	UpdateModel(w http.ResponseWriter, r *http.Request)
}

func NewLLMTuningController(incidentService service.IncidentService, authorizationService service.AuthorizationService) LLMTuningController {
	return &llmTuningControllerImpl{incidentService: incidentService, authorizationService: authorizationService}
}

type llmTuningControllerImpl struct {
	incidentService      service.IncidentService
	authorizationService service.AuthorizationService
}

func (l llmTuningControllerImpl) UpdateClassifyPrompt(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.MakeUserContext(r)
	sufficientPrivileges, err := l.authorizationService.HasManagementPermission(ctx)
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

	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	var req view.UpdatePromptReq
	err = json.Unmarshal(body, &req)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}

	l.incidentService.UpdateClassifyPrompt(req.Prompt)
}

func (l llmTuningControllerImpl) UpdateModel(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.MakeUserContext(r)
	sufficientPrivileges, err := l.authorizationService.HasManagementPermission(ctx)
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

	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	var req view.UpdateModelReq
	err = json.Unmarshal(body, &req)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}

	err = l.incidentService.UpdateModel(req.Model)
	if err != nil {
		respondWithError(w, "Failed to update model", err)
		return
	}
}
