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

package metrics

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/allstarlink/iaxcore/internal/config"
)

const readTimeout = 3 * time.Second

// RosterFunc supplies the active call roster `iaxcore status` fetches
// from /roster, as a JSON-encodable value. cmd/root.go passes
// bridge.Bridge.Roster wrapped to this shape; metrics has no reason to
// import internal/bridge just to name its return type.
type RosterFunc func() any

// CreateMetricsServer starts the promhttp listener in the background if
// metrics are enabled, returning as soon as the socket is bound so the
// caller can report a startup error instead of the process panicking on
// a stale-lockfile-style port conflict. roster may be nil, in which case
// /roster always reports an empty list.
func CreateMetricsServer(cfg *config.Config, roster RosterFunc) error {
	if !cfg.Metrics.Enabled {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.Metrics.Bind, cfg.Metrics.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/roster", func(w http.ResponseWriter, _ *http.Request) {
		var entries any = []struct{}{}
		if roster != nil {
			entries = roster()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	})
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}

	go func() {
		_ = server.Serve(ln)
	}()
	return nil
}
