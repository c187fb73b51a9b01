// SPDX-License-Identifier: AGPL-3.0-or-later
// iaxcore - an IAX2 voice conferencing bridge
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package db opens the local call-detail-record and node-key-cache
// database: a single embedded sqlite file by default, matching DMRHub's
// default deployment story, since this bridge has no multi-tenant web
// database to scale out.
package db

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/db/migration"
	"github.com/allstarlink/iaxcore/internal/db/models"
)

const (
	connsPerCPU = 10
	maxIdleTime = 10 * time.Minute
)

// MakeDB opens the configured database, runs AutoMigrate for the two
// tables iaxcore owns, then applies whatever gormigrate steps an
// existing database hasn't seen yet.
func MakeDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&models.CallRecord{}, &models.NodeKeyCache{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, migration.All(db, cfg))
	if err := m.Migrate(); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(runtime.GOMAXPROCS(0))
	sqlDB.SetMaxOpenConns(runtime.GOMAXPROCS(0) * connsPerCPU)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	log.Info("database ready", "driver", cfg.Database.Driver, "path", cfg.Database.Path)
	return db, nil
}
