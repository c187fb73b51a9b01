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

// Package metrics exposes counters and histograms for the line engine
// and bridge mixer, served by promhttp, plus a welford-backed
// cross-call network delay aggregate distinct from any one call's own
// Ramjee jitter estimator.
package metrics

import (
	"github.com/eclesh/welford"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every iaxcore metric. One Registry is created at
// startup; internal/netdiag reads it as its delay Estimator, and
// internal/line and internal/bridge do not receive it.
type Registry struct {
	FramesInTotal  *prometheus.CounterVec
	FramesOutTotal *prometheus.CounterVec

	RetransmitsTotal prometheus.Counter

	JitterLateTotal        prometheus.Counter
	JitterInterpolatedTotal prometheus.Counter

	BridgeMixDuration prometheus.Histogram
	ActiveCalls       prometheus.Gauge

	// delay is the secondary, slower cross-call one-way-delay
	// aggregate (distinct from any call's own Ramjee playout
	// estimator): mean/variance computed online with welford.Stats so
	// a single observation never re-scans history.
	delay *welford.Stats
}

// New creates and registers every iaxcore metric against the default
// Prometheus registry.
func New() *Registry {
	r := &Registry{
		FramesInTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iaxcore_frames_in_total",
			Help: "Total inbound IAX2 frames processed, by type.",
		}, []string{"type"}),
		FramesOutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iaxcore_frames_out_total",
			Help: "Total outbound IAX2 frames sent, by type.",
		}, []string{"type"}),
		RetransmitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iaxcore_retransmits_total",
			Help: "Total full frames retransmitted by the signalling retransmit buffer.",
		}),
		JitterLateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iaxcore_jitter_late_total",
			Help: "Total voice frames the jitter buffer discarded as out-of-sequence.",
		}),
		JitterInterpolatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iaxcore_jitter_interpolated_total",
			Help: "Total ticks the jitter buffer asked the sink to conceal with interpolated voice.",
		}),
		BridgeMixDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "iaxcore_bridge_mix_duration_seconds",
			Help:    "Wall-clock duration of one Bridge.AudioRateTick mixer pass.",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iaxcore_active_calls",
			Help: "Number of calls currently staged in the bridge roster.",
		}),
		delay: welford.New(),
	}
	prometheus.MustRegister(
		r.FramesInTotal, r.FramesOutTotal, r.RetransmitsTotal,
		r.JitterLateTotal, r.JitterInterpolatedTotal,
		r.BridgeMixDuration, r.ActiveCalls,
	)
	return r
}

// ObserveDelay folds one more one-way-delay sample (milliseconds) into
// the cross-call aggregate.
func (r *Registry) ObserveDelay(ms float64) {
	r.delay.Add(ms)
}

// NetworkStats reports the cross-call one-way delay mean and standard
// deviation observed so far.
func (r *Registry) NetworkStats() (meanMs, stddevMs float64) {
	return r.delay.Mean(), r.delay.Stddev()
}
