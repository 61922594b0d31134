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
	"net/http"
	"strconv"

	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/service"
)

type ReportController interface {
	GetQualityReport(w http.ResponseWriter, r *http.Request)
}

func NewReportController(reportService service.QualityReportService, authorizationService service.AuthorizationService) ReportController {
	return &reportControllerImpl{reportService: reportService, authorizationService: authorizationService}
}

type reportControllerImpl struct {
	reportService        service.QualityReportService
	authorizationService service.AuthorizationService
}

func (c reportControllerImpl) GetQualityReport(w http.ResponseWriter, r *http.Request) {
	facilityId, err := getUnescapedStringParam(r, "facility_id")
	if err != nil {
		respondWithError(w, "Failed to read facility id", err)
		return
	}

	periodDays := 30
	periodDaysStr := r.URL.Query().Get("periodDays")
	if periodDaysStr != "" {
		periodDays, err = strconv.Atoi(periodDaysStr)
		if err != nil || periodDays < 1 || periodDays > 365 {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusBadRequest,
				Code:    exception.InvalidParameterValue,
				Message: exception.InvalidParameterValueMsg,
				Params:  map[string]interface{}{"param": "periodDays", "value": periodDaysStr},
			})
			return
		}
	}

	ctx := secctx.MakeUserContext(r)
	result, err := c.reportService.GetQualityReport(ctx, facilityId, periodDays)
	if err != nil {
		respondWithError(w, "Failed to build quality report", err)
		return
	}
	respondWithJson(w, http.StatusOK, result)
}
