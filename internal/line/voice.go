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

// deliverVoiceFull decodes a full voice frame (sent whenever the
// timestamp's upper 16 bits rolled over since the last voice frame) and
// hands it to the bridge.
func (e *Engine) deliverVoiceFull(slot *CallSlot, full iax2frame.Full) {
	if e.OnMessage == nil {
		return
	}
	now := time.Now()
	m := message.NewAudio(slot.NegotiatedCodec, full.Payload, full.Timestamp, slot.ElapsedMs(now))
	m.SetSource(0, uint32(slot.LocalCallID))
	e.OnMessage(slot, m)
}

// deliverVoiceMini decodes a mini voice frame, reconstructing its full
// 32-bit origin timestamp from the slot's own high-water mark: a mini
// frame only carries the low 16 bits, so the high bits are whatever this
// engine most recently associated with the slot via a full frame or a
// prior mini frame that didn't wrap.
func (e *Engine) deliverVoiceMini(slot *CallSlot, mini iax2frame.Mini) {
	if e.OnMessage == nil {
		return
	}
	origin := uint32(slot.LastDispensedFullTop)<<16 | uint32(mini.TimestampLow)
	now := time.Now()
	m := message.NewAudio(slot.NegotiatedCodec, mini.Payload, origin, slot.ElapsedMs(now))
	m.SetSource(0, uint32(slot.LocalCallID))
	e.OnMessage(slot, m)
}

// SendVoice transmits one voice payload to slot's peer, choosing a full
// or mini frame per the timestamp-dispensing rule and incrementing the
// slot's sequence counters exactly as any other outbound frame would.
func (e *Engine) SendVoice(slot *CallSlot, payload []byte) {
	now := time.Now()
	ts, needFull := slot.DispenseVoiceTimestamp(slot.ElapsedMs(now))

	if needFull {
		full := slot.Full(iax2frame.FrameTypeVoice, byte(slot.NegotiatedCodec), payload)
		full.Timestamp = ts
		full.OSeq = slot.NextOutboundSeq()
		full.ISeq = slot.ExpectedInboundSeq
		e.sendFrame(full, slot.PeerAddr)
		return
	}

	mini := iax2frame.Mini{
		SourceCallID: slot.LocalCallID,
		TimestampLow: uint16(ts),
		Payload:      payload,
	}
	raw, err := mini.Serialise()
	if err != nil {
		e.log.Debug("serialise mini frame", "err", err)
		return
	}
	if err := e.transport.WriteSignalling(slot.PeerAddr, raw); err != nil {
		e.log.Debug("write mini frame", "err", err)
	}
}
