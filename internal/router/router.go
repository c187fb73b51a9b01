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

// Package router wires the process's message.Router to the four
// collaborators that speak the bus protocol: internal/line (the one
// UDP bus this process owns), internal/bridge (the conference mixer),
// internal/ttsworker, and internal/netdiag. None of those packages
// import one another; router is the only place that does, which is
// why the wiring lives here rather than in cmd directly.
package router

import (
	"github.com/allstarlink/iaxcore/internal/bridge"
	"github.com/allstarlink/iaxcore/internal/line"
	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/netdiag"
	"github.com/allstarlink/iaxcore/internal/ttsworker"
)

// LineBusID is the bus ID internal/line addresses its frames under.
// A process hosts exactly one line engine (config.Config.Line is a
// single struct, not a list), so there is only ever one bus to name.
const LineBusID uint32 = 0

// Wire constructs a message.Router and connects it to engine, br, tts,
// and diag in both directions:
//
//   - engine's inbound reports (a caller keyed, DTMF, hangup, ...) go
//     straight to br.Handle, which keys off SourceBusID/SourceCallID
//     and has no reason to go through the router.
//   - br's outbound requests (audio to send, TTS_REQ, NET_DIAG_1_REQ,
//     RADIO_UNKEY, ...) are Dest-addressed and go through the router,
//     which sends bus-0 traffic to engine.Consume and TTS_REQ/
//     NET_DIAG_1_REQ to the matching worker by Type.
//   - tts and diag's replies (TTS_AUDIO, TTS_END, NET_DIAG_1_RES) are
//     also Dest-addressed, but to a *call*, not to the line bus, so
//     they are type-registered straight to br.DeliverReply rather than
//     to engine.Consume.
func Wire(engine *line.Engine, br *bridge.Bridge, tts *ttsworker.Worker, diag *netdiag.Prober) *message.Router {
	r := message.NewRouter()

	r.RegisterBus(LineBusID, message.ConsumerFunc(engine.Consume))
	r.RegisterType(message.TypeTTSRequest, message.ConsumerFunc(tts.Consume))
	r.RegisterType(message.TypeNetDiag1Request, message.ConsumerFunc(diag.Consume))
	r.RegisterType(message.TypeTTSAudio, message.ConsumerFunc(br.DeliverReply))
	r.RegisterType(message.TypeTTSEnd, message.ConsumerFunc(br.DeliverReply))
	r.RegisterType(message.TypeNetDiag1Response, message.ConsumerFunc(br.DeliverReply))

	engine.OnMessage = func(_ *line.CallSlot, m message.Message) { br.Handle(m) }
	br.OnMessage = r.Route
	tts.OnMessage = r.Route
	diag.OnMessage = r.Route

	return r
}
