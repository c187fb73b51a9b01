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

	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/iax2frame"
)

// localCapability is this bridge's advertised codec capability mask:
// native 48kHz SLIN plus the narrowband codecs it can transcode to/from.
const localCapability = uint32(iax2frame.CodecSLIN48K) | uint32(iax2frame.CodecSLIN16K) |
	uint32(iax2frame.CodecSLIN) | uint32(iax2frame.CodecG711ULaw)

// handleNew runs spec.md §4.4's five-step NEW-handling algorithm for an
// inbound call request addressed to call-id zero:
//  1. If call tokens are required and the NEW carries none (or the wrong
//     one), challenge with CALLTOKEN and wait for the retry rather than
//     allocating any state.
//  2. Validate the IEs a NEW must carry (called number at minimum).
//  3. Negotiate a codec from the capability/format IEs.
//  4. Allocate a call slot, move it into the called-side state machine,
//     and ACK.
//  5. Kick off whatever DNS lookup the configured auth mode requires.
func (e *Engine) handleNew(full iax2frame.Full, from netip.AddrPort) {
	if len(e.slots) >= e.cfg.CallSlots {
		e.sendReject(full, from, "no call slots available")
		return
	}

	ies := iax2frame.ParseIEs(full.Payload)

	if e.cfg.RequireCallToken {
		token, _ := ies.GetBytes(iax2frame.IECallToken)
		if !VerifyCallToken(token, from, e.startTime) {
			e.sendCallTokenChallenge(full, from)
			return
		}
	}

	calledNumber, ok := ies.GetString(iax2frame.IECalledNumber)
	if !ok || calledNumber == "" {
		e.sendReject(full, from, "missing called number")
		return
	}

	peerCapability, _ := ies.GetUint32(iax2frame.IECapability)
	peerFormat, _ := ies.GetUint32(iax2frame.IEFormat)
	codec := NegotiateCodec(localCapability, peerCapability, peerFormat)
	if codec == iax2frame.CodecUnknown {
		e.sendReject(full, from, "no shared codec")
		return
	}

	callingNumber, _ := ies.GetString(iax2frame.IECallingNumber)

	slot := NewCallSlot(SideCalled, e.allocateCallID())
	slot.RemoteCallID = full.SourceCallID
	slot.PeerAddr = from
	slot.RemoteNodeNumber = callingNumber
	slot.LocalNodeNumber = calledNumber
	slot.NegotiatedCodec = uint32(codec)
	slot.ExpectedInboundSeq = full.OSeq
	e.slots[slot.LocalCallID] = slot

	switch e.cfg.AuthMode {
	case config.AuthModeOpen:
		slot.State = StateCallerValidated
		e.sendAccept(slot, codec)
	case config.AuthModeSourceIP:
		slot.State = StateIPValidation0
		e.startDNSLookup(slot, dnsLookupA)
	case config.AuthModeChallengeEd25519:
		slot.State = StateAuthRepWait0
		challenge, err := GenerateAuthChallenge()
		if err != nil {
			e.log.Error("generate auth challenge", "err", err)
			delete(e.slots, slot.LocalCallID)
			return
		}
		slot.AuthChallenge = challenge
		e.sendAuthReq(slot, challenge)
	}
}

func (e *Engine) allocateCallID() uint16 {
	for {
		e.nextCallID++
		id := e.nextCallID & 0x7fff
		if id == 0 {
			continue
		}
		if _, taken := e.slots[id]; !taken {
			return id
		}
	}
}

func (e *Engine) sendCallTokenChallenge(full iax2frame.Full, from netip.AddrPort) {
	token := CallToken(from, e.startTime)
	ies := iax2frame.IESet(nil).WithBytes(iax2frame.IECallToken, token)
	reply := iax2frame.Full{
		SourceCallID: 0,
		DestCallID:   full.SourceCallID,
		Type:         iax2frame.FrameTypeIAX,
		Subclass:     byte(iax2frame.IAXSubclassCallToken),
		OSeq:         0,
		ISeq:         full.OSeq,
		Payload:      ies.Serialise(),
	}
	e.sendFrame(reply, from)
}

func (e *Engine) sendReject(full iax2frame.Full, from netip.AddrPort, cause string) {
	ies := iax2frame.IESet(nil).WithString(iax2frame.IECause, cause)
	reply := iax2frame.Full{
		SourceCallID: 0,
		DestCallID:   full.SourceCallID,
		Type:         iax2frame.FrameTypeIAX,
		Subclass:     byte(iax2frame.IAXSubclassReject),
		ISeq:         full.OSeq + 1,
		Payload:      ies.Serialise(),
	}
	e.sendFrame(reply, from)
}

func (e *Engine) sendAccept(slot *CallSlot, codec iax2frame.CodecType) {
	ies := iax2frame.IESet(nil).WithUint32(iax2frame.IEFormat, uint32(codec))
	full := slot.Full(iax2frame.FrameTypeIAX, byte(iax2frame.IAXSubclassAccept), ies.Serialise())
	full.OSeq = slot.NextOutboundSeq()
	full.ISeq = slot.ExpectedInboundSeq
	e.sendFrame(full, slot.PeerAddr)
	slot.State = StateLinked
}

func (e *Engine) sendAuthReq(slot *CallSlot, challenge string) {
	ies := iax2frame.IESet(nil).
		WithUint8(iax2frame.IEAuthMethods, 0x08). // Ed25519 challenge method, spec.md §9
		WithString(iax2frame.IEChallenge, challenge)
	full := slot.Full(iax2frame.FrameTypeIAX, byte(iax2frame.IAXSubclassAuthReq), ies.Serialise())
	full.OSeq = slot.NextOutboundSeq()
	full.ISeq = slot.ExpectedInboundSeq
	e.sendFrame(full, slot.PeerAddr)
}

func (e *Engine) sendAck(slot *CallSlot, acked iax2frame.Full) {
	full := slot.Full(iax2frame.FrameTypeIAX, byte(iax2frame.IAXSubclassAck), nil)
	full.Timestamp = acked.Timestamp
	full.OSeq = slot.OutboundSeq
	full.ISeq = acked.OSeq + 1
	e.sendFrame(full, slot.PeerAddr)
}

func (e *Engine) sendFrame(full iax2frame.Full, dest netip.AddrPort) {
	raw, err := full.Serialise()
	if err != nil {
		e.log.Error("serialise outbound frame", "err", err)
		return
	}
	if err := e.transport.WriteSignalling(dest, raw); err != nil {
		e.log.Debug("write outbound frame", "err", err, "dest", dest)
	}
}
