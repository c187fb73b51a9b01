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

package bridge

import (
	"strings"
	"time"

	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/parrot"
)

// dtmfWindowMs is the pause, after the last digit, that closes an
// accumulating DTMF command and dispatches it.
const dtmfWindowMs = 2500 * time.Millisecond

// handleDTMF accumulates one digit for call; the command itself is
// dispatched later by sweepDTMFWindows once DTMF activity has paused,
// which is also when the call is marked a recent commander.
func (b *Bridge) handleDTMF(call *BridgeCall, m message.Message, now time.Time) {
	if len(m.Body) == 0 {
		return
	}
	call.dtmfAccum += string(m.Body)
	call.lastDTMFAt = now
}

// sweepDTMFWindows dispatches any call's accumulated DTMF command once
// dtmfWindowMs has elapsed since its last digit.
func (b *Bridge) sweepDTMFWindows(now time.Time) {
	for _, call := range b.calls {
		if call.dtmfAccum == "" || call.lastDTMFAt.IsZero() {
			continue
		}
		if now.Sub(call.lastDTMFAt) < dtmfWindowMs {
			continue
		}
		cmd := call.dtmfAccum
		call.dtmfAccum = ""
		call.lastCommandAt = now
		b.dispatchCommand(call, cmd, now)
	}
}

// dispatchCommand implements the minimum DTMF command set.
func (b *Bridge) dispatchCommand(call *BridgeCall, cmd string, now time.Time) {
	switch {
	case strings.HasPrefix(cmd, "*3") && len(cmd) > 2:
		b.commandCallNode(call, cmd[2:])
	case cmd == "*71":
		b.commandDropAll(call)
	case cmd == "*70":
		b.commandAnnounce(call)
	case cmd == "*76":
		b.commandParrot(call, now)
	}
}

// commandCallNode publishes a CALL_NODE signal so the line engine places
// an outbound call to the requested node.
func (b *Bridge) commandCallNode(call *BridgeCall, node string) {
	if b.OnMessage == nil {
		return
	}
	payload := message.PayloadCall{LocalNumber: call.NodeNumber, TargetNumber: node}
	body, err := payload.MarshalMsg(nil)
	if err != nil {
		return
	}
	sig := message.NewSignal(message.SignalCallNode)
	sig.Body = body
	sig.SetSource(call.BusID, call.CallID)
	b.OnMessage(sig)
}

// commandDropAll publishes a drop-all-nodes signal scoped to this call's
// line; the line engine hangs up every outbound call it placed.
func (b *Bridge) commandDropAll(call *BridgeCall) {
	if b.OnMessage == nil {
		return
	}
	sig := message.NewSignal(message.SignalDropAllNodes)
	sig.SetSource(call.BusID, call.CallID)
	b.OnMessage(sig)
}

// commandAnnounce speaks the list of currently connected nodes back to
// the requesting call via TTS.
func (b *Bridge) commandAnnounce(call *BridgeCall) {
	var names []string
	for _, other := range b.calls {
		if other == call || other.NodeNumber == "" {
			continue
		}
		names = append(names, other.NodeNumber)
	}
	text := "no nodes connected"
	if len(names) > 0 {
		text = "connected: " + strings.Join(names, ", ")
	}
	b.sendTTS(call, text)
}

// commandParrot switches call into parrot mode and kicks off the net-diag
// round trip parrot's WaitingForNetTest state is gated on; a reply (or
// its absence, past parrot's own timeout) reaches the state machine
// through DeliverReply.
func (b *Bridge) commandParrot(call *BridgeCall, now time.Time) {
	call.Mode = ModeParrot
	call.Parrot = parrot.New(now)
	b.sendNetDiagProbe(call)
}

func (b *Bridge) sendNetDiagProbe(call *BridgeCall) {
	if b.OnMessage == nil {
		return
	}
	req := message.Message{Type: message.TypeNetDiag1Request}
	req.SetDest(call.BusID, call.CallID)
	b.OnMessage(req)
}
