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

package db

import (
	"fmt"

	"github.com/go-pg/pg/v10"
	log "github.com/sirupsen/logrus"
)

type ConnectionProvider interface {
	GetConnection() *pg.DB
}

type Credentials struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

func NewConnectionProvider(creds Credentials) ConnectionProvider {
	conn := pg.Connect(&pg.Options{
		Addr:     fmt.Sprintf("%s:%d", creds.Host, creds.Port),
		Database: creds.Database,
		User:     creds.Username,
		Password: creds.Password,
	})
	log.Infof("Connected to database %s at %s:%d", creds.Database, creds.Host, creds.Port)
	return &connectionProviderImpl{conn: conn}
}

type connectionProviderImpl struct {
	conn *pg.DB
}

func (c *connectionProviderImpl) GetConnection() *pg.DB {
	return c.conn
}
