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

package router_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/allstarlink/iaxcore/internal/bridge"
	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/line"
	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/netdiag"
	"github.com/allstarlink/iaxcore/internal/nodedb"
	"github.com/allstarlink/iaxcore/internal/router"
	"github.com/allstarlink/iaxcore/internal/ttsworker"
)

type fakeEstimator struct{ meanMs, stddevMs float64 }

func (f fakeEstimator) NetworkStats() (float64, float64) { return f.meanMs, f.stddevMs }

func newWiredProcess(t *testing.T) (*line.Engine, *bridge.Bridge) {
	t.Helper()
	log := slog.Default()

	cfg := config.Line{Bind: "127.0.0.1", Port: 0, CallSlots: 8}
	dnsCfg := config.DNS{ResolverAddr: "127.0.0.1:53", RootDomain: "nodes.allstarlink.org"}
	engine, err := line.New(cfg, dnsCfg, nodedb.New(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	br := bridge.New(config.Bridge{MaxCalls: 8, KerchunkTrustWindow: 60 * time.Second}, log)
	tts := ttsworker.New(log)
	diag := netdiag.New(log, fakeEstimator{meanMs: 10})

	router.Wire(engine, br, tts, diag)
	return engine, br
}

func callStartBody(t *testing.T) []byte {
	t.Helper()
	payload := message.PayloadCallStart{Codec: 0, Echo: false}
	body, err := payload.MarshalMsg(nil)
	require.NoError(t, err)
	return body
}

// TestDropAllNodesReachesLineThroughRouter exercises the full
// bridge-emits -> router-routes -> line-consumes path for a DTMF *71
// command, without needing a real UDP peer: the only engine-side effect
// observed is the call slot's state flipping to hung-up.
func TestDropAllNodesReachesLineThroughRouter(t *testing.T) {
	t.Parallel()
	engine, br := newWiredProcess(t)

	slot := engine.PlaceCall("1000", "61057")
	require.NotNil(t, slot)
	callID := uint32(slot.LocalCallID)

	start := message.NewSignal(message.SignalCallStart)
	start.Body = callStartBody(t)
	start.SetSource(router.LineBusID, callID)
	br.Handle(start)

	dtmf := message.Message{Type: message.TypeText, Body: []byte("*71")}
	dtmf.SetSource(router.LineBusID, callID)
	br.Handle(dtmf)

	br.AudioRateTick(time.Now().Add(3 * time.Second))

	require.Equal(t, line.StateTerminateWaiting, slot.State)
}

// TestTTSRequestReachesWorkerThroughRouter confirms a TTS_REQ the bridge
// raises (via the *70 "announce" command) is answered by the TTS worker
// rather than looping back to the bridge's own bus registration.
func TestTTSRequestReachesWorkerThroughRouter(t *testing.T) {
	t.Parallel()
	engine, br := newWiredProcess(t)

	slot := engine.PlaceCall("1000", "61057")
	callID := uint32(slot.LocalCallID)

	start := message.NewSignal(message.SignalCallStart)
	start.Body = callStartBody(t)
	start.SetSource(router.LineBusID, callID)
	br.Handle(start)

	dtmf := message.Message{Type: message.TypeText, Body: []byte("*70")}
	dtmf.SetSource(router.LineBusID, callID)
	br.Handle(dtmf)

	// Must not panic: the TTS_REQ is consumed by the worker, not looped
	// back into the bridge (which has no handling for TypeTTSRequest in
	// Handle and would otherwise just silently drop it, masking a
	// misrouted wiring).
	br.AudioRateTick(time.Now().Add(3 * time.Second))

	roster := br.Roster()
	require.Len(t, roster, 1)
}
