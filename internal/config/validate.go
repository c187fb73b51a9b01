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

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")

	// ErrInvalidLineBind indicates that the provided line bind address is not valid.
	ErrInvalidLineBind = errors.New("invalid line bind address provided")
	// ErrInvalidLinePort indicates that the provided line port is not valid.
	ErrInvalidLinePort = errors.New("invalid line port provided")
	// ErrInvalidLineCallSlots indicates that the call slot count is not positive.
	ErrInvalidLineCallSlots = errors.New("line call slots must be positive")
	// ErrInvalidLineAuthMode indicates that the provided auth mode is not recognized.
	ErrInvalidLineAuthMode = errors.New("invalid line auth mode provided")
	// ErrLineEd25519KeyRequired indicates that challenge-ed25519 auth was selected without a key path.
	ErrLineEd25519KeyRequired = errors.New("ed25519 private key path is required for challenge-ed25519 auth mode")

	// ErrInvalidDNSResolverAddr indicates that the provided DNS resolver address is not valid.
	ErrInvalidDNSResolverAddr = errors.New("invalid DNS resolver address provided")
	// ErrInvalidDNSRootDomain indicates that the provided DNS root domain is not valid.
	ErrInvalidDNSRootDomain = errors.New("invalid DNS root domain provided")

	// ErrInvalidBridgeMaxCalls indicates that the maximum bridge call count is not positive.
	ErrInvalidBridgeMaxCalls = errors.New("bridge max calls must be positive")

	// ErrInvalidDatabaseDriver indicates that the provided database driver is not valid.
	ErrInvalidDatabaseDriver = errors.New("invalid database driver provided")
	// ErrInvalidDatabasePath indicates that the provided database path is empty.
	ErrInvalidDatabasePath = errors.New("invalid database path provided")

	// ErrInvalidRedisHost indicates that the provided Redis host is not valid.
	ErrInvalidRedisHost = errors.New("invalid Redis host provided")
	// ErrInvalidRedisPort indicates that the provided Redis port is not valid.
	ErrInvalidRedisPort = errors.New("invalid Redis port provided")

	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")

	// ErrInvalidPProfBindAddress indicates that the provided PProf server bind address is not valid.
	ErrInvalidPProfBindAddress = errors.New("invalid PProf server bind address provided")
	// ErrInvalidPProfPort indicates that the provided PProf server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid PProf server port provided")
)

// Validate validates the Line configuration.
func (l Line) Validate() error {
	if l.Bind == "" {
		return ErrInvalidLineBind
	}
	if l.Port <= 0 || l.Port > 65535 {
		return ErrInvalidLinePort
	}
	if l.CallSlots <= 0 {
		return ErrInvalidLineCallSlots
	}
	if l.AuthMode != AuthModeOpen &&
		l.AuthMode != AuthModeSourceIP &&
		l.AuthMode != AuthModeChallengeEd25519 {
		return ErrInvalidLineAuthMode
	}
	if l.AuthMode == AuthModeChallengeEd25519 && l.Ed25519PrivateKeyPath == "" {
		return ErrLineEd25519KeyRequired
	}
	return nil
}

// ValidateWithFields validates the Line configuration, returning every
// violation found rather than just the first.
func (l Line) ValidateWithFields() []error {
	var errs []error
	if l.Bind == "" {
		errs = append(errs, ErrInvalidLineBind)
	}
	if l.Port <= 0 || l.Port > 65535 {
		errs = append(errs, ErrInvalidLinePort)
	}
	if l.CallSlots <= 0 {
		errs = append(errs, ErrInvalidLineCallSlots)
	}
	if l.AuthMode != AuthModeOpen &&
		l.AuthMode != AuthModeSourceIP &&
		l.AuthMode != AuthModeChallengeEd25519 {
		errs = append(errs, ErrInvalidLineAuthMode)
	}
	if l.AuthMode == AuthModeChallengeEd25519 && l.Ed25519PrivateKeyPath == "" {
		errs = append(errs, ErrLineEd25519KeyRequired)
	}
	return errs
}

// Validate validates the DNS configuration.
func (d DNS) Validate() error {
	if d.ResolverAddr == "" {
		return ErrInvalidDNSResolverAddr
	}
	if d.RootDomain == "" {
		return ErrInvalidDNSRootDomain
	}
	return nil
}

// Validate validates the Bridge configuration.
func (b Bridge) Validate() error {
	if b.MaxCalls <= 0 {
		return ErrInvalidBridgeMaxCalls
	}
	return nil
}

// Validate validates the Database configuration.
func (d Database) Validate() error {
	if d.Driver != DatabaseDriverSQLite {
		return ErrInvalidDatabaseDriver
	}
	if d.Path == "" {
		return ErrInvalidDatabasePath
	}
	return nil
}

// Validate validates the Redis configuration.
func (r Redis) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Host == "" {
		return ErrInvalidRedisHost
	}
	if r.Port <= 0 || r.Port > 65535 {
		return ErrInvalidRedisPort
	}
	return nil
}

// ValidateWithFields validates the Redis configuration, returning every
// violation found rather than just the first.
func (r Redis) ValidateWithFields() []error {
	if !r.Enabled {
		return nil
	}
	var errs []error
	if r.Host == "" {
		errs = append(errs, ErrInvalidRedisHost)
	}
	if r.Port <= 0 || r.Port > 65535 {
		errs = append(errs, ErrInvalidRedisPort)
	}
	return errs
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Bind == "" {
		return ErrInvalidPProfBindAddress
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate checks the whole configuration, returning the first error found.
func (c Config) Validate() error {
	if c.LogLevel != LogLevelDebug &&
		c.LogLevel != LogLevelInfo &&
		c.LogLevel != LogLevelWarn &&
		c.LogLevel != LogLevelError {
		return ErrInvalidLogLevel
	}

	if err := c.Line.Validate(); err != nil {
		return err
	}
	if err := c.DNS.Validate(); err != nil {
		return err
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}

	return nil
}

// ValidateWithFields checks the whole configuration and returns every
// violation found, for surfacing to an operator all at once rather than
// one error per fix-and-restart cycle.
func (c Config) ValidateWithFields() []error {
	var errs []error

	if c.LogLevel != LogLevelDebug &&
		c.LogLevel != LogLevelInfo &&
		c.LogLevel != LogLevelWarn &&
		c.LogLevel != LogLevelError {
		errs = append(errs, ErrInvalidLogLevel)
	}

	errs = append(errs, c.Line.ValidateWithFields()...)

	if err := c.DNS.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Bridge.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, c.Redis.ValidateWithFields()...)

	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.PProf.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errs
}
