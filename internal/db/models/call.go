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

// Package models holds the gorm-mapped tables iaxcore keeps locally:
// a lastheard-style call log and the DNS node-key cache's durable
// backing store. Neither is required for a call to complete — both
// are best-effort local record keeping, in the same spirit as DMRHub's
// "lastheard" feature.
package models

import "time"

// CallRecord is one completed (or in-progress) call's summary. The
// `iaxcore status` subcommand does not read it; it shows the live roster.
type CallRecord struct {
	ID uint `gorm:"primarykey"`

	BusID  uint32 `gorm:"index"`
	CallID uint32 `gorm:"index"`

	LocalNodeNumber  string
	RemoteNodeNumber string
	RemoteAddr       string

	Codec string

	StartedAt time.Time `gorm:"index"`
	EndedAt   *time.Time

	// TerminationCause is a short human-readable reason the call ended
	// ("hangup", "timeout", "reject", ""  while still active).
	TerminationCause string
}

// Duration reports how long the call has run, or has run so far if
// still active.
func (c CallRecord) Duration() time.Duration {
	if c.EndedAt == nil {
		return time.Since(c.StartedAt)
	}
	return c.EndedAt.Sub(c.StartedAt)
}
