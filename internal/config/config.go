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

// Package config defines the configuration surface for iaxcore, loaded
// once at process start via configulator (environment + YAML + defaults).
// Runtime reconfiguration is out of scope for the core; an external
// config poller (see spec.md §1) may restart the process to apply changes.
package config

import "time"

// Config is the root configuration object. Every nested struct owns its
// own Validate() method; Config.Validate aggregates them, the same shape
// DMRHub's internal/config uses for its HTTP/Database/Redis groups.
type Config struct {
	LogLevel LogLevel `yaml:"logLevel" env:"LOG_LEVEL"`

	Line     Line     `yaml:"line"`
	DNS      DNS      `yaml:"dns"`
	Bridge   Bridge   `yaml:"bridge"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Metrics  Metrics  `yaml:"metrics"`
	PProf    PProf    `yaml:"pprof"`
}

// Line configures the single UDP socket a line engine binds (spec §4.4).
type Line struct {
	Bind string `yaml:"bind" env:"LINE_BIND"`
	Port int    `yaml:"port" env:"LINE_PORT"`

	// CallSlots bounds the number of concurrent calls this line can track.
	// spec.md §4.4 defaults this to 8.
	CallSlots int `yaml:"callSlots" env:"LINE_CALL_SLOTS"`

	// LocalNodeNumber identifies this line for NEW requests it originates
	// and for DTMF-command node announcements.
	LocalNodeNumber uint32 `yaml:"localNodeNumber" env:"LINE_NODE_NUMBER"`

	AuthMode              AuthMode `yaml:"authMode" env:"LINE_AUTH_MODE"`
	RequireCallToken      bool     `yaml:"requireCallToken" env:"LINE_REQUIRE_CALL_TOKEN"`
	Ed25519PrivateKeyPath string   `yaml:"ed25519PrivateKeyPath" env:"LINE_ED25519_KEY_PATH"`

	// InactivityTimeout hangs up a call with no received frame for this long.
	InactivityTimeout time.Duration `yaml:"inactivityTimeout" env:"LINE_INACTIVITY_TIMEOUT"`
}

// DNS configures node resolution (spec.md §4.4, §6).
type DNS struct {
	ResolverAddr string `yaml:"resolverAddr" env:"DNS_RESOLVER_ADDR"`
	RootDomain   string `yaml:"rootDomain" env:"DNS_ROOT_DOMAIN"`
}

// Bridge configures the conference mixer (spec.md §4.5).
type Bridge struct {
	MaxCalls int `yaml:"maxCalls" env:"BRIDGE_MAX_CALLS"`

	// KerchunkTrustWindow is how long a newly-joined call's audio is held
	// back from the mix until it is trusted, see SPEC_FULL.md §3.
	KerchunkTrustWindow time.Duration `yaml:"kerchunkTrustWindow" env:"BRIDGE_KERCHUNK_TRUST_WINDOW"`
}

// Database configures call-record and node-key-cache persistence.
type Database struct {
	Driver DatabaseDriver `yaml:"driver" env:"DB_DRIVER"`
	Path   string         `yaml:"path" env:"DB_PATH"`
}

// Redis configures the optional shared KV/pubsub backend used for parrot
// recordings and peer-ownership leases across a multi-instance deployment.
// When disabled, internal/kv and internal/pubsub fall back to in-process
// implementations.
type Redis struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	Host     string `yaml:"host" env:"REDIS_HOST"`
	Port     int    `yaml:"port" env:"REDIS_PORT"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

// Metrics configures the Prometheus metrics server and OTLP trace export.
type Metrics struct {
	Enabled      bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Bind         string `yaml:"bind" env:"METRICS_BIND"`
	Port         int    `yaml:"port" env:"METRICS_PORT"`
	OTLPEndpoint string `yaml:"otlpEndpoint" env:"METRICS_OTLP_ENDPOINT"`
}

// PProf configures the optional profiling server.
type PProf struct {
	Enabled bool   `yaml:"enabled" env:"PPROF_ENABLED"`
	Bind    string `yaml:"bind" env:"PPROF_BIND"`
	Port    int    `yaml:"port" env:"PPROF_PORT"`
}

// Default returns a Config populated with the same kind of baked-in
// defaults DMRHub's old loadConfig seeded (non-zero ports, an embedded
// database by default) so that configulator only needs to override what
// an operator actually sets.
func Default() Config {
	return Config{
		LogLevel: LogLevelInfo,
		Line: Line{
			Bind:              "0.0.0.0",
			Port:              4569,
			CallSlots:         8,
			AuthMode:          AuthModeOpen,
			InactivityTimeout: 40 * time.Second,
		},
		DNS: DNS{
			ResolverAddr: "127.0.0.1:53",
			RootDomain:   "nodes.allstarlink.org",
		},
		Bridge: Bridge{
			MaxCalls:            32,
			KerchunkTrustWindow: 60 * time.Second,
		},
		Database: Database{
			Driver: DatabaseDriverSQLite,
			Path:   "iaxcore.db",
		},
		Redis: Redis{
			Host: "localhost",
			Port: 6379,
		},
		Metrics: Metrics{
			Enabled: true,
			Bind:    "0.0.0.0",
			Port:    9465,
		},
		PProf: PProf{
			Bind: "localhost",
			Port: 6060,
		},
	}
}
