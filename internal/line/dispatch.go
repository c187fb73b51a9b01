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

// handleInbound classifies and dispatches one received UDP datagram.
// Full frames addressed to call-id zero are unauthenticated startup
// traffic (NEW, POKE) and never look up a slot by call-id; everything
// else is routed to the slot the frame identifies.
func (e *Engine) handleInbound(raw []byte, from netip.AddrPort) {
	if iax2frame.IsFull(raw) {
		full, err := iax2frame.ParseFull(raw)
		if err != nil {
			e.log.Debug("dropping malformed full frame", "from", from, "err", err)
			return
		}
		e.handleFull(full, from)
		return
	}

	mini, err := iax2frame.ParseMini(raw)
	if err != nil {
		e.log.Debug("dropping malformed mini frame", "from", from, "err", err)
		return
	}
	e.handleMini(mini, from)
}

func (e *Engine) handleFull(full iax2frame.Full, from netip.AddrPort) {
	if full.DestCallID == 0 {
		e.handleUnauthenticated(full, from)
		return
	}

	slot, ok := e.slots[full.DestCallID]
	if !ok {
		e.log.Debug("full frame for unknown call", "dest_call_id", full.DestCallID, "from", from)
		return
	}
	e.dispatchToSlot(slot, full, from)
}

// handleMini looks a slot up by (source call-id, peer address) rather
// than by a call-id a mini frame doesn't carry a destination for at all.
func (e *Engine) handleMini(mini iax2frame.Mini, from netip.AddrPort) {
	slot := e.findSlotByRemote(mini.SourceCallID, from)
	if slot == nil {
		e.log.Debug("mini frame for unknown call", "remote_call_id", mini.SourceCallID, "from", from)
		return
	}
	slot.LastFrameRecvAt = time.Now()
	e.deliverVoiceMini(slot, mini)
}

func (e *Engine) findSlotByRemote(remoteCallID uint16, from netip.AddrPort) *CallSlot {
	for _, s := range e.slots {
		if s.RemoteCallID == remoteCallID && s.PeerAddr == from {
			return s
		}
	}
	return nil
}

// handleUnauthenticated processes the only frame classes legitimately
// addressed to call-id zero: NEW (new call setup) and POKE (liveness
// probe with no call state at all). Anything else addressed to call-id
// zero is a protocol violation and is dropped.
func (e *Engine) handleUnauthenticated(full iax2frame.Full, from netip.AddrPort) {
	if full.Type != iax2frame.FrameTypeIAX {
		return
	}
	switch iax2frame.IAXSubclass(full.Subclass) {
	case iax2frame.IAXSubclassNew:
		e.handleNew(full, from)
	case iax2frame.IAXSubclassPoke:
		e.handlePoke(full, from)
	}
}

func (e *Engine) dispatchToSlot(slot *CallSlot, full iax2frame.Full, from netip.AddrPort) {
	outcome := ClassifyInbound(full, slot.ExpectedInboundSeq, slot.OutboundSeq-1)
	slot.LastFrameRecvAt = time.Now()
	slot.PeerAddr = from

	if outcome.SendAck {
		e.sendAck(slot, full)
	}
	if !outcome.Deliver {
		return
	}
	slot.ExpectedInboundSeq = AdvanceExpectedInSeq(slot.ExpectedInboundSeq, full)

	// Evicts every retransmission-buffer entry the peer's ISeq has now
	// acknowledged; the bool return just reports whether anything was
	// evicted, which dispatch has no further use for.
	slot.Retransmit.SetExpectedSeq(full.ISeq)

	e.handleFullByState(slot, full)
}
