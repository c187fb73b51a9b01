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

package line

import (
	"time"

	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/message"
)

// Consume accepts a message addressed to this engine's bus (by the
// router, on the bridge's behalf) and turns it into wire traffic for
// the named call slot. It is the outbound counterpart to OnMessage:
// where OnMessage reports what arrived on the wire, Consume is what the
// bridge asks to be sent back out. A message for a call slot this
// engine no longer has (hung up mid-flight) is silently dropped.
func (e *Engine) Consume(m message.Message) {
	switch {
	case m.Type == message.TypeAudio:
		if slot, ok := e.slots[uint16(m.DestCallID)]; ok && slot.Active {
			e.SendVoice(slot, m.Body)
		}
	case m.IsSignal(message.SignalRadioUnkey):
		if slot, ok := e.slots[uint16(m.DestCallID)]; ok && slot.Active {
			e.sendControl(slot, iax2frame.ControlSubclassUnkey)
		}
	case m.IsSignal(message.SignalCallNode):
		e.consumeCallNode(m)
	case m.IsSignal(message.SignalDropAllNodes):
		e.consumeDropAllNodes(m)
	}
}

func (e *Engine) consumeCallNode(m message.Message) {
	var payload message.PayloadCall
	if _, err := payload.UnmarshalMsg(m.Body); err != nil {
		e.log.Error("line: parse call-node payload", "err", err)
		return
	}
	e.PlaceCall(payload.LocalNumber, payload.TargetNumber)
}

// consumeDropAllNodes hangs up every call this engine originated
// (Side == SideCaller); inbound calls from other nodes are left alone,
// since *71 drops this node's own outbound links, not its callers.
func (e *Engine) consumeDropAllNodes(_ message.Message) {
	for _, slot := range e.slots {
		if slot.Active && slot.Side == SideCaller {
			e.hangup(slot)
		}
	}
}

// sendControl transmits a bare control frame (KEY/UNKEY/STOP_SOUNDS)
// to slot's peer, the outbound counterpart to deliverControlSignal.
func (e *Engine) sendControl(slot *CallSlot, sub iax2frame.ControlSubclass) {
	full := slot.Full(iax2frame.FrameTypeControl, byte(sub), nil)
	full.OSeq = slot.NextOutboundSeq()
	full.ISeq = slot.ExpectedInboundSeq
	full.Timestamp = slot.DispenseTimestamp(slot.ElapsedMs(time.Now()))
	e.sendFrame(full, slot.PeerAddr)
}
