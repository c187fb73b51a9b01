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
	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/seqwrap"
)

// InboundOutcome is what an engine should do in response to one received
// full frame, decided by the sequencing policy before the frame's
// payload is interpreted at all.
type InboundOutcome struct {
	// Deliver reports whether the frame is new and should be handed to
	// the call state machine. A duplicate or out-of-window retransmit
	// still gets ACKed (if AckRequired) but is never delivered twice.
	Deliver bool
	// SendAck reports whether an ACK echoing frame's timestamp must be
	// sent, regardless of Deliver.
	SendAck bool
	// SequenceError counts this frame as a sequencing anomaly (received
	// ISeq referencing frames this side never sent, or an OSeq far
	// outside the expected window) for spec.md's sequence-error metric.
	SequenceError bool
}

// ClassifyInbound applies spec.md §4.4's sequence/ACK policy to one
// received full frame. expectedInSeq is the slot's current expected
// inbound OSeq (i.e. the OSeq this side expects the next new frame to
// carry); lastSeqSent is this side's last dispensed outbound seq, used
// to detect a peer ISeq referencing a frame never sent.
func ClassifyInbound(frame iax2frame.Full, expectedInSeq, lastSeqSent uint8) InboundOutcome {
	var out InboundOutcome

	if seqwrap.After(frame.ISeq, lastSeqSent) {
		out.SequenceError = true
	}

	switch seqwrap.Compare(frame.OSeq, expectedInSeq) {
	case 0:
		out.Deliver = true
	case -1:
		// Already-seen frame: a retransmit (or a duplicate racing its
		// own ACK). Still ACK it unless it's in the no-ACK set, but
		// never deliver it again.
		out.Deliver = false
	default:
		// Frame arrived ahead of what was expected: a gap exists.
		// VNAK recovery is driven by the engine's retransmit-request
		// logic, not this classification step; the frame itself is
		// still not delivered out of order.
		out.Deliver = false
		out.SequenceError = true
	}

	if frame.Retransmit {
		out.SendAck = frame.RetransmitAckRequired()
	} else {
		out.SendAck = frame.AckRequired()
	}

	return out
}

// AdvanceExpectedInSeq returns the next expected inbound OSeq after
// successfully delivering frame, tolerating regression: a peer that
// legitimately restarts its own sequence (e.g. after a lost NEW/ACCEPT
// round trip) must not be permanently desynced by a stale "expected"
// value from before the restart.
func AdvanceExpectedInSeq(expectedInSeq uint8, frame iax2frame.Full) uint8 {
	if !frame.OSeqRequired() {
		return expectedInSeq
	}
	if seqwrap.Compare(frame.OSeq, expectedInSeq) < 0 {
		return expectedInSeq
	}
	return frame.OSeq + 1
}
