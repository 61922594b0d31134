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
	"fmt"
	"os"
	"strconv"

	"github.com/carebridge/compliance-service/db"
	"github.com/carebridge/compliance-service/view"
	log "github.com/sirupsen/logrus"
)

const (
	LISTEN_ADDRESS = "LISTEN_ADDRESS"
	ORIGIN_ALLOWED = "ORIGIN_ALLOWED"
	LOG_LEVEL      = "LOG_LEVEL"

	PLATFORM_URL          = "PLATFORM_URL"
	PLATFORM_ACCESS_TOKEN = "PLATFORM_ACCESS_TOKEN"

	PG_HOST     = "PG_HOST"
	PG_PORT     = "PG_PORT"
	PG_DB       = "PG_DB"
	PG_USER     = "PG_USER"
	PG_PASSWORD = "PG_PASSWORD"

	OPENAI_API_KEY = "OPENAI_API_KEY"
	OPENAI_MODEL   = "OPENAI_MODEL"
	OPENAI_PROXY   = "OPENAI_PROXY"

	OLRIC_DISCOVERY_MODE = "OLRIC_DISCOVERY_MODE"
	OLRIC_REPLICA_COUNT  = "OLRIC_REPLICA_COUNT"
	NAMESPACE            = "NAMESPACE"

	SCORE_EXCELLENT_THRESHOLD  = "SCORE_EXCELLENT_THRESHOLD"
	SCORE_GOOD_THRESHOLD       = "SCORE_GOOD_THRESHOLD"
	SCORE_ACCEPTABLE_THRESHOLD = "SCORE_ACCEPTABLE_THRESHOLD"

	RETENTION_DAYS = "RETENTION_DAYS"
)

type SystemInfoService interface {
	Init() error
	GetListenAddress() string
	GetOriginAllowed() string
	GetLogLevel() string
	GetPlatformUrl() string
	GetPlatformAccessToken() string
	GetDbCredentials() db.Credentials
	GetOpenaiApiKey() string
	GetOpenaiModel() string
	GetOpenaiProxy() string
	GetOlricDiscoveryMode() string
	GetOlricReplicaCount() int
	GetNamespace() string
	GetBandThresholds() view.BandThresholds
	GetRetentionDays() int
}

func NewSystemInfoService() (SystemInfoService, error) {
	s := &systemInfoServiceImpl{
		systemInfoMap: make(map[string]interface{})}
	if err := s.Init(); err != nil {
		log.Error("Failed to read system info: " + err.Error())
		return nil, err
	}
	return s, nil
}

type systemInfoServiceImpl struct {
	systemInfoMap map[string]interface{}
}

func (g systemInfoServiceImpl) Init() error {
	g.setListenAddress()
	g.setOriginAllowed()
	g.setLogLevel()
	g.setPlatformUrl()
	g.setPlatformAccessToken()
	if err := g.setDbCredentials(); err != nil {
		return err
	}
	g.setOpenaiParams()
	if err := g.setOlricParams(); err != nil {
		return err
	}
	if err := g.setBandThresholds(); err != nil {
		return err
	}
	if err := g.setRetentionDays(); err != nil {
		return err
	}

	return nil
}

func (g systemInfoServiceImpl) setListenAddress() {
	listenAddr := os.Getenv(LISTEN_ADDRESS)
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	g.systemInfoMap[LISTEN_ADDRESS] = listenAddr
}

func (g systemInfoServiceImpl) GetListenAddress() string {
	return g.systemInfoMap[LISTEN_ADDRESS].(string)
}

func (g systemInfoServiceImpl) setOriginAllowed() {
	g.systemInfoMap[ORIGIN_ALLOWED] = os.Getenv(ORIGIN_ALLOWED)
}

func (g systemInfoServiceImpl) GetOriginAllowed() string {
	return g.systemInfoMap[ORIGIN_ALLOWED].(string)
}

func (g systemInfoServiceImpl) setLogLevel() {
	g.systemInfoMap[LOG_LEVEL] = os.Getenv(LOG_LEVEL)
}

func (g systemInfoServiceImpl) GetLogLevel() string {
	return g.systemInfoMap[LOG_LEVEL].(string)
}

func (g systemInfoServiceImpl) setPlatformUrl() {
	g.systemInfoMap[PLATFORM_URL] = os.Getenv(PLATFORM_URL)
}

func (g systemInfoServiceImpl) GetPlatformUrl() string {
	return g.systemInfoMap[PLATFORM_URL].(string)
}

func (g systemInfoServiceImpl) setPlatformAccessToken() {
	g.systemInfoMap[PLATFORM_ACCESS_TOKEN] = os.Getenv(PLATFORM_ACCESS_TOKEN)
}

func (g systemInfoServiceImpl) GetPlatformAccessToken() string {
	return g.systemInfoMap[PLATFORM_ACCESS_TOKEN].(string)
}

func (g systemInfoServiceImpl) setDbCredentials() error {
	port := 5432
	portStr := os.Getenv(PG_PORT)
	if portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid %s value: %s", PG_PORT, portStr)
		}
	}
	host := os.Getenv(PG_HOST)
	if host == "" {
		host = "localhost"
	}
	database := os.Getenv(PG_DB)
	if database == "" {
		database = "compliance"
	}
	g.systemInfoMap[PG_HOST] = db.Credentials{
		Host:     host,
		Port:     port,
		Database: database,
		Username: os.Getenv(PG_USER),
		Password: os.Getenv(PG_PASSWORD),
	}
	return nil
}

func (g systemInfoServiceImpl) GetDbCredentials() db.Credentials {
	return g.systemInfoMap[PG_HOST].(db.Credentials)
}

func (g systemInfoServiceImpl) setOpenaiParams() {
	g.systemInfoMap[OPENAI_API_KEY] = os.Getenv(OPENAI_API_KEY)
	g.systemInfoMap[OPENAI_MODEL] = os.Getenv(OPENAI_MODEL)
	g.systemInfoMap[OPENAI_PROXY] = os.Getenv(OPENAI_PROXY)
}

func (g systemInfoServiceImpl) GetOpenaiApiKey() string {
	return g.systemInfoMap[OPENAI_API_KEY].(string)
}

func (g systemInfoServiceImpl) GetOpenaiModel() string {
	return g.systemInfoMap[OPENAI_MODEL].(string)
}

func (g systemInfoServiceImpl) GetOpenaiProxy() string {
	return g.systemInfoMap[OPENAI_PROXY].(string)
}

func (g systemInfoServiceImpl) setOlricParams() error {
	g.systemInfoMap[OLRIC_DISCOVERY_MODE] = os.Getenv(OLRIC_DISCOVERY_MODE)
	g.systemInfoMap[NAMESPACE] = os.Getenv(NAMESPACE)

	replicaCount := 0
	replicaCountStr := os.Getenv(OLRIC_REPLICA_COUNT)
	if replicaCountStr != "" {
		var err error
		replicaCount, err = strconv.Atoi(replicaCountStr)
		if err != nil {
			return fmt.Errorf("invalid %s value: %s", OLRIC_REPLICA_COUNT, replicaCountStr)
		}
	}
	g.systemInfoMap[OLRIC_REPLICA_COUNT] = replicaCount
	return nil
}

func (g systemInfoServiceImpl) GetOlricDiscoveryMode() string {
	return g.systemInfoMap[OLRIC_DISCOVERY_MODE].(string)
}

func (g systemInfoServiceImpl) GetOlricReplicaCount() int {
	return g.systemInfoMap[OLRIC_REPLICA_COUNT].(int)
}

func (g systemInfoServiceImpl) GetNamespace() string {
	return g.systemInfoMap[NAMESPACE].(string)
}

func (g systemInfoServiceImpl) setBandThresholds() error {
	thresholds := view.DefaultBandThresholds()

	for env, target := range map[string]*int{
		SCORE_EXCELLENT_THRESHOLD:  &thresholds.Excellent,
		SCORE_GOOD_THRESHOLD:       &thresholds.Good,
		SCORE_ACCEPTABLE_THRESHOLD: &thresholds.Acceptable,
	} {
		value := os.Getenv(env)
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 || parsed > 100 {
			return fmt.Errorf("invalid %s value: %s", env, value)
		}
		*target = parsed
	}

	if thresholds.Excellent < thresholds.Good || thresholds.Good < thresholds.Acceptable {
		return fmt.Errorf("band thresholds must be ordered: excellent >= good >= acceptable")
	}

	g.systemInfoMap[SCORE_EXCELLENT_THRESHOLD] = thresholds
	return nil
}

func (g systemInfoServiceImpl) GetBandThresholds() view.BandThresholds {
	return g.systemInfoMap[SCORE_EXCELLENT_THRESHOLD].(view.BandThresholds)
}

func (g systemInfoServiceImpl) setRetentionDays() error {
	retentionDays := 365
	retentionStr := os.Getenv(RETENTION_DAYS)
	if retentionStr != "" {
		var err error
		retentionDays, err = strconv.Atoi(retentionStr)
		if err != nil || retentionDays <= 0 {
			return fmt.Errorf("invalid %s value: %s", RETENTION_DAYS, retentionStr)
		}
	}
	g.systemInfoMap[RETENTION_DAYS] = retentionDays
	return nil
}

func (g systemInfoServiceImpl) GetRetentionDays() int {
	return g.systemInfoMap[RETENTION_DAYS].(int)
}
