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

// Package pprof serves net/http/pprof's default mux on its own port.
// DMRHub wraps this in a gin router with tracing middleware because its
// pprof server shares a process with a public-facing web API; iaxcore
// has no such API, so this is a bare net/http server bound to a
// loopback address by default instead.
package pprof

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	// registers its handlers on http.DefaultServeMux's profile paths,
	// which this package's own mux imports indirectly via pprof.Index etc.
	"net/http/pprof"
	"time"

	"github.com/allstarlink/iaxcore/internal/config"
)

const readTimeout = 3 * time.Second

// CreatePProfServer starts the pprof listener in the background if
// enabled, returning once the socket is bound.
func CreatePProfServer(cfg *config.Config, log *slog.Logger) error {
	if !cfg.PProf.Enabled {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.PProf.Bind, cfg.PProf.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pprof: listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}

	log.Info("pprof server listening", "address", addr)
	go func() {
		_ = server.Serve(ln)
	}()
	return nil
}
