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

package migration

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/db/models"
)

// addTerminationCauseIndex indexes CallRecord.TerminationCause so a
// query filtering the lastheard log by termination cause avoids a full
// table scan once it grows past a handful of rows.
func addTerminationCauseIndex(db *gorm.DB, _ *config.Config) *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202607010100",
		Migrate: func(tx *gorm.DB) error {
			if !tx.Migrator().HasTable(&models.CallRecord{}) {
				return nil
			}
			if err := tx.Migrator().CreateIndex(&models.CallRecord{}, "TerminationCause"); err != nil {
				return fmt.Errorf("create termination_cause index: %w", err)
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			if !tx.Migrator().HasTable(&models.CallRecord{}) || !tx.Migrator().HasIndex(&models.CallRecord{}, "TerminationCause") {
				return nil
			}
			if err := tx.Migrator().DropIndex(&models.CallRecord{}, "TerminationCause"); err != nil {
				return fmt.Errorf("drop termination_cause index: %w", err)
			}
			return nil
		},
	}
}
