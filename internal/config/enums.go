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

package config

// LogLevel represents the logging level for the application.
type LogLevel string

const (
	// LogLevelDebug is the debug logging level, providing detailed information.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the informational logging level, providing general information.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is the warning logging level, indicating potential issues.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is the error logging level, indicating serious issues.
	LogLevelError LogLevel = "error"
)

// DatabaseDriver represents the type of database driver used for call
// records and the node-key cache.
type DatabaseDriver string

const (
	// DatabaseDriverSQLite is the embedded, driverless SQLite backend. The
	// default: a single-binary bridge should not require an external database.
	DatabaseDriverSQLite DatabaseDriver = "sqlite"
)

// AuthMode is the per-line authentication mode for inbound NEW requests,
// see spec §4.4.
type AuthMode string

const (
	// AuthModeOpen performs no source validation and issues no challenge.
	AuthModeOpen AuthMode = "open"
	// AuthModeSourceIP requires a call token and validates the caller's
	// node against the address a DNS A lookup returns for it.
	AuthModeSourceIP AuthMode = "source-ip"
	// AuthModeChallengeEd25519 issues an AUTHREQ challenge and verifies an
	// Ed25519 signature against the node's DNS TXT-published public key.
	AuthModeChallengeEd25519 AuthMode = "challenge-ed25519"
)
