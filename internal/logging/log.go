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

// Package logging builds the process-wide slog.Logger used by every other
// package. iaxcore logs to stdout/stderr only; there is no per-call log
// file the way older single-binary bridges keep one, since call volume
// here is bounded by CallSlots and fits comfortably in a process log.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/allstarlink/iaxcore/internal/config"
)

// New builds a tint-colored slog.Logger at the level configured for the
// process. Warn and Error levels go to stderr so an operator tailing
// stdout for normal traffic doesn't miss them; Debug and Info go to stdout.
func New(level config.LogLevel) *slog.Logger {
	var w *os.File
	var slogLevel slog.Level

	switch level {
	case config.LogLevelDebug:
		w, slogLevel = os.Stdout, slog.LevelDebug
	case config.LogLevelInfo:
		w, slogLevel = os.Stdout, slog.LevelInfo
	case config.LogLevelWarn:
		w, slogLevel = os.Stderr, slog.LevelWarn
	case config.LogLevelError:
		w, slogLevel = os.Stderr, slog.LevelError
	default:
		w, slogLevel = os.Stdout, slog.LevelInfo
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slogLevel,
		TimeFormat: "15:04:05.000",
	}))
}
