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

package models

import "time"

// NodeKeyCache is the durable counterpart to internal/nodedb.DB's
// in-memory cache: the last endpoint and Ed25519 public key resolved
// for a node, so a restart doesn't force every node to be re-resolved
// over DNS before its first call can be placed.
type NodeKeyCache struct {
	Node string `gorm:"primarykey"`

	Addr      string
	PublicKey []byte

	FetchedAt time.Time
}
