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

// Package migration lists the gormigrate steps applied after the initial
// AutoMigrate, the same two-phase shape DMRHub's internal/db/migration
// uses: AutoMigrate gets a fresh database to the latest struct tags,
// gormigrate carries an existing one forward column-by-column.
package migration

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/allstarlink/iaxcore/internal/config"
)

// All returns every migration in order, ready to hand to
// gormigrate.New(db, gormigrate.DefaultOptions, migration.All(db, cfg)).
func All(db *gorm.DB, cfg *config.Config) []*gormigrate.Migration {
	return []*gormigrate.Migration{
		addTerminationCauseIndex(db, cfg),
	}
}
