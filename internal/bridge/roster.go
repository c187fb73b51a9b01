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

package bridge

import "time"

// RosterEntry is a snapshot of one active call slot, for `iaxcore
// status` to render and for internal/metrics to publish over HTTP.
type RosterEntry struct {
	BusID      uint32    `json:"busId"`
	CallID     uint32    `json:"callId"`
	NodeNumber string    `json:"nodeNumber"`
	Mode       string    `json:"mode"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// Roster returns every active call slot, in no particular order.
func (b *Bridge) Roster() []RosterEntry {
	entries := make([]RosterEntry, 0, len(b.calls))
	for _, call := range b.calls {
		if !call.Active {
			continue
		}
		entries = append(entries, RosterEntry{
			BusID:      call.BusID,
			CallID:     call.CallID,
			NodeNumber: call.NodeNumber,
			Mode:       call.Mode.String(),
			JoinedAt:   call.JoinedAt,
		})
	}
	return entries
}

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeParrot:
		return "parrot"
	case ModeTone:
		return "tone"
	default:
		return "unknown"
	}
}
