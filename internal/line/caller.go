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

	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/dnsresolve"
	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/nodedb"
)

// PlaceCall starts a caller-side call to targetNode. The call progresses
// through the LOOKUP states entirely via DNS responses arriving on
// Engine.Run's event loop; PlaceCall itself only allocates the slot and
// kicks off the first lookup, unless the node db already has a fresh
// enough answer cached, in which case the lookup states are skipped
// entirely.
func (e *Engine) PlaceCall(localNumber, targetNode string) *CallSlot {
	if len(e.slots) >= e.cfg.CallSlots {
		return nil
	}

	slot := NewCallSlot(SideCaller, e.allocateCallID())
	slot.LocalNodeNumber = localNumber
	slot.RemoteNodeNumber = targetNode
	e.slots[slot.LocalCallID] = slot

	needsKey := e.cfg.AuthMode == config.AuthModeChallengeEd25519
	if entry, ok := e.nodes.Get(targetNode); ok && (!needsKey || len(entry.PublicKey) > 0) {
		slot.PeerAddr = entry.Addr
		slot.RemotePublicKey = entry.PublicKey
		e.sendNew(slot)
		return slot
	}

	slot.State = StateLookup0
	e.startDNSLookup(slot, dnsLookupSRV)
	return slot
}

// cacheNode records what this slot just learned about its remote node
// (address, and public key when the auth mode resolved one) so the next
// PlaceCall to the same node can skip the DNS lookup states entirely.
func (e *Engine) cacheNode(slot *CallSlot) {
	if slot.RemoteNodeNumber == "" {
		return
	}
	_, _ = e.nodes.Put(nodedb.Entry{
		Node:      slot.RemoteNodeNumber,
		Addr:      slot.PeerAddr,
		PublicKey: slot.RemotePublicKey,
		FetchedAt: time.Now(),
	})
}

// onSRVResolved handles the caller-side LOOKUP_0 -> LOOKUP_0A transition:
// an SRV answer names a target hostname and port, which must itself be
// resolved to an address before a NEW can be sent.
func (e *Engine) onSRVResolved(slot *CallSlot, result dnsresolve.SRVResult) {
	slot.State = StateLookup0A
	slot.srvTarget = result.Target
	slot.srvPort = result.Port
	e.startDNSLookup(slot, dnsLookupA)
}

// onTXTResolved handles LOOKUP_1A: the called node's published Ed25519
// public key, needed either to sign an AUTHREQ challenge (caller side,
// LOOKUP_1A) or to verify an AUTHREP this engine already received
// (called side, deferred verification in handleAuthRep).
func (e *Engine) onTXTResolved(slot *CallSlot, result dnsresolve.TXTResult) {
	slot.RemotePublicKey = parseEd25519PublicKeyTXT(result.Text)

	if slot.Side == SideCalled {
		e.cacheNode(slot)
		e.handleAuthRep(slot, iax2frame.Full{
			Type:     iax2frame.FrameTypeIAX,
			Subclass: byte(iax2frame.IAXSubclassAuthRep),
			Payload:  iax2frame.IESet(nil).WithBytes(iax2frame.IEEd25519Result, slot.pendingAuthRep).Serialise(),
		})
		return
	}

	e.cacheNode(slot)
	e.sendNew(slot)
}

// onARecordResolved is called once the caller-side A lookup (either the
// node's own record in AuthModeOpen/SourceIP, or the SRV target's
// record otherwise) completes.
func (e *Engine) onARecordResolved(slot *CallSlot, addrPort string) {
	slot.PeerAddr = mustParseAddrPort(addrPort)
	if e.cfg.AuthMode == config.AuthModeChallengeEd25519 {
		slot.State = StateLookup1A
		e.startDNSLookup(slot, dnsLookupTXT)
		return
	}
	e.cacheNode(slot)
	e.sendNew(slot)
}

func (e *Engine) sendNew(slot *CallSlot) {
	slot.State = StateInitiationWait
	ies := iax2frame.IESet(nil).
		WithString(iax2frame.IECalledNumber, slot.RemoteNodeNumber).
		WithString(iax2frame.IECallingNumber, slot.LocalNodeNumber).
		WithUint32(iax2frame.IECapability, localCapability).
		WithUint32(iax2frame.IEFormat, localCapability&uint32(iax2frame.CodecSLIN48K))
	if len(slot.CallToken) > 0 {
		ies = ies.WithBytes(iax2frame.IECallToken, slot.CallToken)
	}

	full := iax2frame.Full{
		SourceCallID: slot.LocalCallID,
		DestCallID:   0,
		Type:         iax2frame.FrameTypeIAX,
		Subclass:     byte(iax2frame.IAXSubclassNew),
		OSeq:         slot.NextOutboundSeq(),
		Payload:      ies.Serialise(),
	}
	slot.Retransmit.Consume(full, time.Now())
	e.sendFrame(full, slot.PeerAddr)
	slot.State = StateWaiting
}

// onCallTokenChallenge retries the NEW this slot already sent, now
// carrying the token the called side returned.
func (e *Engine) onCallTokenChallenge(slot *CallSlot, token []byte) {
	slot.CallToken = token
	slot.State = StateInitiationWait
	e.sendNew(slot)
}
