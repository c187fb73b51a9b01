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
	"net/netip"
	"time"

	"github.com/allstarlink/iaxcore/internal/iax2frame"
)

// handlePoke answers a liveness probe with PONG, carrying back
// APPARENT_ADDR (what this engine observed as the probe's source
// address) so the prober can detect its own NAT mapping, and
// TARGET_ADDR/TARGET_ADDR2 when the probe named a third party this
// engine should forward the PONG toward instead — the local
// NAT-traversal extension spec.md §9 describes.
func (e *Engine) handlePoke(full iax2frame.Full, from netip.AddrPort) {
	ies := iax2frame.ParseIEs(full.Payload)

	replyTo := from
	if targetRaw, ok := ies.GetBytes(iax2frame.IETargetAddr); ok {
		if addr, err := netip.ParseAddrPort(string(targetRaw)); err == nil {
			replyTo = addr
		}
	}

	apparent := iax2frame.IESet(nil).WithString(iax2frame.IEApparentAddr, from.String())
	reply := iax2frame.Full{
		SourceCallID: 0,
		DestCallID:   full.SourceCallID,
		Type:         iax2frame.FrameTypeIAX,
		Subclass:     byte(iax2frame.IAXSubclassPong),
		Timestamp:    full.Timestamp,
		ISeq:         full.OSeq + 1,
		Payload:      apparent.Serialise(),
	}
	e.sendFrame(reply, replyTo)
}

// sendPing transmits a PING to slot's peer and records when it was sent
// so onPong can compute a round-trip sample.
func (e *Engine) sendPing(slot *CallSlot) {
	full := slot.Full(iax2frame.FrameTypeIAX, byte(iax2frame.IAXSubclassPing), nil)
	full.OSeq = slot.NextOutboundSeq()
	full.ISeq = slot.ExpectedInboundSeq
	slot.PingSentAt = time.Now()
	slot.PingCount++
	e.sendFrame(full, slot.PeerAddr)
}

// sendLagRq transmits a LAGRQ, the companion one-way-delay probe to
// PING, echoed back verbatim as LAGRP.
func (e *Engine) sendLagRq(slot *CallSlot) {
	full := slot.Full(iax2frame.FrameTypeIAX, byte(iax2frame.IAXSubclassLagRq), nil)
	full.OSeq = slot.NextOutboundSeq()
	full.ISeq = slot.ExpectedInboundSeq
	full.Timestamp = slot.DispenseTimestamp(slot.ElapsedMs(time.Now()))
	e.sendFrame(full, slot.PeerAddr)
}

func (e *Engine) onPong(slot *CallSlot, _ iax2frame.Full) {
	if slot.PingSentAt.IsZero() {
		return
	}
	rtt := time.Since(slot.PingSentAt)
	slot.LagMs = slot.DelayFilter.Observe(float64(rtt.Milliseconds()))
}

func (e *Engine) onLagReply(slot *CallSlot, full iax2frame.Full) {
	now := slot.ElapsedMs(time.Now())
	if now < full.Timestamp {
		return
	}
	slot.LagMs = slot.DelayFilter.Observe(float64(now - full.Timestamp))
}
