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

package exception

import (
	"fmt"
	"strings"
)

type CustomError struct {
	Status  int                    `json:"status"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Debug   string                 `json:"debug,omitempty"`
}

func (c CustomError) Error() string {
	msg := c.Message
	for k, v := range c.Params {
		msg = strings.ReplaceAll(msg, "$"+k, fmt.Sprintf("%v", v))
	}
	return msg
}

const NoPlatformAccess = "200"
const NoPlatformAccessMsg = "No access to care platform with code: $code. Probably incorrect configuration: api key."

const DuplicateEvent = "10000"
const DuplicateEventMsg = "Unable to create episode evaluation task: event id $event_id already exists"

const InvalidURLEscape = "6"
const InvalidURLEscapeMsg = "Failed to unescape parameter $param"

const InvalidParameterValue = "9"
const InvalidParameterValueMsg = "Value '$value' is not allowed for parameter $param"

const BadRequestBody = "10"
const BadRequestBodyMsg = "Failed to decode body"

const RequiredParamsMissing = "15"
const RequiredParamsMissingMsg = "Required parameters are missing: $params"

const IncorrectMultipartFile = "1000"
const IncorrectMultipartFileMsg = "Unable to read Multipart file"

const InsufficientPrivileges = "1900"
const InsufficientPrivilegesMsg = "You don't have enough privileges to perform this operation"

const EntityNotFound = "100"
const EntityNotFoundMsg = "$entity with id $id is not found"

const RulesetCanNotBeDeleted = "2000"
const RulesetCanNotBeDeletedMsg = "Ruleset with $id can not be deleted"

const InvalidRulesetFile = "2100"
const InvalidRulesetFileMsg = "Ruleset file is invalid: $error"

const DuplicateCheckId = "2101"
const DuplicateCheckIdMsg = "Ruleset contains duplicate check id '$id'"

const UnknownComplianceDomain = "2200"
const UnknownComplianceDomainMsg = "Compliance domain '$domain' is not supported"

const NoActiveRuleset = "2300"
const NoActiveRulesetMsg = "No active ruleset found for compliance domain '$domain'"

const EvaluationConflict = "2400"
const EvaluationConflictMsg = "Request must contain either rulesetId with check states or inline checks, not both"
