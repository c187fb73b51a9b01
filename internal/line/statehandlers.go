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

// handleFullByState interprets a delivered full frame against the
// slot's current state. Frame classes common to every state (HANGUP,
// PING/PONG keepalive replies) are handled first; everything else is
// only meaningful in the state that expects it.
func (e *Engine) handleFullByState(slot *CallSlot, full iax2frame.Full) {
	if full.Type == iax2frame.FrameTypeIAX {
		switch iax2frame.IAXSubclass(full.Subclass) {
		case iax2frame.IAXSubclassHangup:
			e.onHangup(slot)
			return
		case iax2frame.IAXSubclassCallToken:
			if slot.Side == SideCaller {
				ies := iax2frame.ParseIEs(full.Payload)
				if token, ok := ies.GetBytes(iax2frame.IECallToken); ok {
					e.onCallTokenChallenge(slot, token)
				}
			}
			return
		case iax2frame.IAXSubclassPong:
			e.onPong(slot, full)
			return
		case iax2frame.IAXSubclassLagRp:
			e.onLagReply(slot, full)
			return
		}
	}

	switch slot.State {
	case StateWaiting, StateAuthRepWait1:
		// StateAuthRepWait1 is the caller side after it has answered an
		// AUTHREQ challenge: it is waiting on the same ACCEPT/REJECT
		// reply NEW itself would have produced.
		e.handleWaiting(slot, full)
	case StateAuthRepWait0:
		e.handleAuthReqReply(slot, full)
	case StateLinked, StateUp:
		e.handleEstablished(slot, full)
	}
}

// handleWaiting is the caller side's reaction to the called side's reply
// to NEW: ACCEPT moves to LINKED (a later ANSWER moves it to UP), AUTHREQ means the called side wants an
// Ed25519 challenge answered first, REJECT tears the call down.
func (e *Engine) handleWaiting(slot *CallSlot, full iax2frame.Full) {
	if full.Type != iax2frame.FrameTypeIAX {
		return
	}
	switch iax2frame.IAXSubclass(full.Subclass) {
	case iax2frame.IAXSubclassAccept:
		ies := iax2frame.ParseIEs(full.Payload)
		if format, ok := ies.GetUint32(iax2frame.IEFormat); ok {
			slot.NegotiatedCodec = format
		}
		slot.State = StateLinked
		e.onCallUp(slot)
	case iax2frame.IAXSubclassAuthReq:
		ies := iax2frame.ParseIEs(full.Payload)
		challenge, _ := ies.GetString(iax2frame.IEChallenge)
		slot.AuthChallenge = challenge
		e.sendAuthRep(slot)
	case iax2frame.IAXSubclassReject:
		e.terminate(slot)
	}
}

// handleAuthReqReply exists for symmetry with the called-side AUTHREQ
// wait state naming; the called side never receives frames while in
// StateAuthRepWait0 other than the caller's AUTHREP, handled below.
func (e *Engine) handleAuthReqReply(slot *CallSlot, full iax2frame.Full) {
	e.handleAuthRep(slot, full)
}

// handleAuthRep is the called side's verification of an AUTHREP against
// the challenge it issued and the node's published public key.
func (e *Engine) handleAuthRep(slot *CallSlot, full iax2frame.Full) {
	if full.Type != iax2frame.FrameTypeIAX || iax2frame.IAXSubclass(full.Subclass) != iax2frame.IAXSubclassAuthRep {
		return
	}
	ies := iax2frame.ParseIEs(full.Payload)
	sig, _ := ies.GetBytes(iax2frame.IEEd25519Result)

	if slot.RemotePublicKey == nil {
		e.startDNSLookup(slot, dnsLookupTXT)
		slot.pendingAuthRep = append([]byte(nil), sig...)
		return
	}

	if !VerifyAuthChallenge(slot.RemotePublicKey, slot.AuthChallenge, sig) {
		e.sendReject(full, slot.PeerAddr, "authentication failed")
		e.terminate(slot)
		return
	}
	slot.State = StateCallerValidated
	e.sendAccept(slot, iax2frame.CodecType(slot.NegotiatedCodec))
}

func (e *Engine) sendAuthRep(slot *CallSlot) {
	// Caller side signing requires its own private key, which this
	// engine does not hold on behalf of peers; a caller-side AUTHREP is
	// only ever sent by the bridge operator's own outbound calls, which
	// configure a signer out of band. Absent one, the call cannot
	// proceed past the challenge.
	slot.State = StateAuthRepWait1
}

// handleEstablished processes in-call signalling once a call has
// reached StateLinked/StateUp: ANSWER, KEY/UNKEY, STOP_SOUNDS, DTMF, and
// voice full frames (the upper-16-bit-rollover case a mini frame can't
// carry).
func (e *Engine) handleEstablished(slot *CallSlot, full iax2frame.Full) {
	switch full.Type {
	case iax2frame.FrameTypeControl:
		switch iax2frame.ControlSubclass(full.Subclass) {
		case iax2frame.ControlSubclassAnswer:
			slot.State = StateUp
			e.onCallUp(slot)
		case iax2frame.ControlSubclassKey, iax2frame.ControlSubclassUnkey, iax2frame.ControlSubclassStopSounds:
			// Forwarded to the bridge as signal messages; the line
			// engine itself has no reaction beyond delivering them.
			e.deliverControlSignal(slot, full)
		}
	case iax2frame.FrameTypeVoice:
		e.deliverVoiceFull(slot, full)
	case iax2frame.FrameTypeDTMF, iax2frame.FrameTypeDTMF2:
		e.deliverDTMF(slot, full)
	}
}

func (e *Engine) onHangup(slot *CallSlot) {
	slot.State = StateTerminateWaiting
	slot.TerminateAt = time.Now().Add(terminationTimeoutMs * time.Millisecond)
	if e.OnCallEnd != nil {
		e.OnCallEnd(slot)
	}
}

func (e *Engine) onCallUp(slot *CallSlot) {
	if e.OnCallUp != nil {
		e.OnCallUp(slot)
	}
}

// deliverControlSignal forwards a KEY/UNKEY/STOP_SOUNDS control frame to
// the bridge as the matching signal message; STOP_SOUNDS has no direct
// SignalType of its own and is folded into SignalRadioUnkey, since both
// mean "the mixer should stop expecting more audio from this source".
func (e *Engine) deliverControlSignal(slot *CallSlot, full iax2frame.Full) {
	if e.OnMessage == nil {
		return
	}
	var sig message.SignalType
	switch iax2frame.ControlSubclass(full.Subclass) {
	case iax2frame.ControlSubclassKey:
		sig = message.SignalRadioKey
	case iax2frame.ControlSubclassUnkey, iax2frame.ControlSubclassStopSounds:
		sig = message.SignalRadioUnkey
	default:
		return
	}
	m := message.NewSignal(sig)
	m.SetSource(0, uint32(slot.LocalCallID))
	e.OnMessage(slot, m)
}

// deliverDTMF forwards one DTMF digit frame as a text message carrying
// the single ASCII digit character; the bridge's command parser reads
// these to recognise *3N-style node commands.
func (e *Engine) deliverDTMF(slot *CallSlot, full iax2frame.Full) {
	if e.OnMessage == nil {
		return
	}
	m := message.Message{Type: message.TypeText, Body: []byte{full.Subclass}}
	m.SetSource(0, uint32(slot.LocalCallID))
	e.OnMessage(slot, m)
}
