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
)

// hangup sends HANGUP and moves slot into TerminateWaiting, lingering
// up to terminationTimeoutMs to catch a retransmitted ACK before the
// slot is actually freed.
func (e *Engine) hangup(slot *CallSlot) {
	full := slot.Full(iax2frame.FrameTypeIAX, byte(iax2frame.IAXSubclassHangup), nil)
	full.OSeq = slot.NextOutboundSeq()
	full.ISeq = slot.ExpectedInboundSeq
	e.sendFrame(full, slot.PeerAddr)

	slot.State = StateTerminateWaiting
	slot.TerminateAt = time.Now().Add(terminationTimeoutMs * time.Millisecond)
	if e.OnCallEnd != nil {
		e.OnCallEnd(slot)
	}
}

// terminate tears a slot down immediately, with no lingering wait — used
// for calls that fail before ever reaching Linked (a rejected NEW, a
// failed DNS lookup), which never had anything worth an ACK grace period.
func (e *Engine) terminate(slot *CallSlot) {
	slot.Active = false
	slot.State = StateTerminated
	if e.OnCallEnd != nil {
		e.OnCallEnd(slot)
	}
	delete(e.slots, slot.LocalCallID)
}
