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

package main

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/controller"
	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/repository"
	"github.com/carebridge/compliance-service/security"
	"github.com/carebridge/compliance-service/service"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func main() {
	readyChan := make(chan bool)
	systemInfoService, err := service.NewSystemInfoService()
	if err != nil {
		panic(err)
	}

	logLevel, err := log.ParseLevel(systemInfoService.GetLogLevel())
	if err != nil {
		log.Errorf("Failed to parse log level: %s", err)
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)

	executorId := uuid.NewString()
	log.Infof("Executor id: %s", executorId)

	connectionProvider := db.NewConnectionProvider(systemInfoService.GetDbCredentials())

	olricProvider, err := client.NewOlricProvider(
		systemInfoService.GetOlricDiscoveryMode(),
		systemInfoService.GetOlricReplicaCount(),
		systemInfoService.GetNamespace(),
		systemInfoService.GetPlatformUrl())
	if err != nil {
		panic(err)
	}

	platformClient := client.NewPlatformClient(systemInfoService.GetPlatformUrl(), systemInfoService.GetPlatformAccessToken())

	err = security.SetupGoGuardian(platformClient)
	if err != nil {
		log.Fatalf("Failed to setup authentication: %s", err)
	}

	openaiClient, err := client.NewOpenaiClient(
		systemInfoService.GetOpenaiApiKey(),
		systemInfoService.GetOpenaiModel(),
		systemInfoService.GetOpenaiProxy())
	if err != nil {
		log.Fatalf("Failed to create openai client: %s", err)
	}

	thresholds := systemInfoService.GetBandThresholds()

	rulesetRepository := repository.NewRulesetRepository(connectionProvider)
	evaluationRepository := repository.NewEvaluationRepository(connectionProvider)
	episodeTaskRepository := repository.NewEpisodeEvalTaskRepository(connectionProvider)
	recordTaskRepository := repository.NewRecordEvalTaskRepository(connectionProvider)
	incidentRepository := repository.NewIncidentRepository(connectionProvider)

	authorizationService := service.NewAuthorizationService()
	rulesetService := service.NewRulesetService(rulesetRepository, olricProvider)
	evaluationService := service.NewEvaluationService(evaluationRepository, rulesetRepository, olricProvider, thresholds)
	incidentService := service.NewIncidentService(incidentRepository, openaiClient)
	systemProbe := service.NewSystemProbe(connectionProvider, olricProvider, executorId)
	reportService := service.NewQualityReportService(evaluationRepository, systemProbe, platformClient, thresholds)

	episodeTaskProcessor := service.NewEpisodeTaskProcessor(
		episodeTaskRepository, recordTaskRepository, evaluationRepository,
		platformClient, rulesetService, thresholds, executorId)
	recordTaskProcessor := service.NewRecordTaskProcessor(
		recordTaskRepository, platformClient, evaluationService, executorId)
	recordTaskProcessor.Start()

	cleanupService := service.NewCleanupService(evaluationRepository, episodeTaskRepository, systemInfoService.GetRetentionDays())
	cleanupService.Start()

	rulesetController := controller.NewRulesetController(rulesetService, authorizationService)
	evaluationController := controller.NewEvaluationController(evaluationService, authorizationService)
	reportController := controller.NewReportController(reportService, authorizationService)
	incidentController := controller.NewIncidentController(incidentService, authorizationService)
	llmTuningController := controller.NewLLMTuningController(incidentService, authorizationService)
	eventController := controller.NewEventController(episodeTaskProcessor)
	healthController := controller.NewHealthController(readyChan)

	router := mux.NewRouter()

	router.HandleFunc("/api/v1/rulesets", security.Secure(rulesetController.CreateRuleset)).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/rulesets", security.Secure(rulesetController.ListRulesets)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/rulesets/{ruleset_id}", security.Secure(rulesetController.GetRuleset)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/rulesets/{ruleset_id}", security.Secure(rulesetController.DeleteRuleset)).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/rulesets/{ruleset_id}/activation", security.Secure(rulesetController.ActivateRuleset)).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/rulesets/{ruleset_id}/activation/history", security.Secure(rulesetController.GetRulesetActivationHistory)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/rulesets/{ruleset_id}/data", security.Secure(rulesetController.GetRulesetData)).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/evaluations", security.Secure(evaluationController.CreateEvaluation)).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/evaluations/{evaluation_id}", security.Secure(evaluationController.GetEvaluation)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/facilities/{facility_id}/evaluations", security.Secure(evaluationController.ListFacilityEvaluations)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/facilities/{facility_id}/episodes/{episode_id}/evaluation", security.Secure(evaluationController.GetEpisodeEvaluation)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/facilities/{facility_id}/report", security.Secure(reportController.GetQualityReport)).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/incidents", security.Secure(incidentController.ClassifyIncident)).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/incidents/{incident_id}", security.Secure(incidentController.GetIncident)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/facilities/{facility_id}/incidents/categories", security.Secure(incidentController.GetCategorySummary)).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/tuning/classifyPrompt", security.Secure(llmTuningController.UpdateClassifyPrompt)).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/tuning/model", security.Secure(llmTuningController.UpdateModel)).Methods(http.MethodPost)

	router.HandleFunc("/api/v1/events/episodeReady", security.SecureSystem(eventController.HandleEpisodeReadyEvent)).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/episodes/{episode_id}/status", security.Secure(eventController.GetEpisodeStatus)).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/facilities/{facility_id}/episodes/{episode_id}/records/{record_slug}/data", security.Secure(eventController.GetRecordData)).Methods(http.MethodGet)

	router.HandleFunc("/live", security.NoSecure(healthController.HandleLiveRequest)).Methods(http.MethodGet)
	router.HandleFunc("/ready", security.NoSecure(healthController.HandleReadyRequest)).Methods(http.MethodGet)

	readyChan <- true
	close(readyChan)

	debug.SetGCPercent(30)

	srv := makeServer(systemInfoService, router)
	log.Fatalf("%v", srv.ListenAndServe())
}

func makeServer(systemInfoService service.SystemInfoService, r *mux.Router) *http.Server {
	listenAddr := systemInfoService.GetListenAddress()

	log.Infof("Listen addr = %s", listenAddr)

	var corsOptions []handlers.CORSOption

	corsOptions = append(corsOptions, handlers.AllowedHeaders([]string{"Connection", "Accept-Encoding", "Content-Encoding", "X-Requested-With", "Content-Type", "Authorization"}))

	allowedOrigin := systemInfoService.GetOriginAllowed()
	if allowedOrigin != "" {
		corsOptions = append(corsOptions, handlers.AllowedOrigins([]string{allowedOrigin}))
	}
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"}))

	return &http.Server{
		Handler:      handlers.CompressHandler(handlers.CORS(corsOptions...)(r)),
		Addr:         listenAddr,
		WriteTimeout: 600 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
}
