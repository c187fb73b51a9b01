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

// audioRateTick runs every jitter.TickMs and drives retransmission of
// any un-ACKed frame whose retransmit interval has elapsed. Voice
// delivery itself is driven by the bridge pulling frames out of each
// call's jitter buffer on its own tick, not by this one.
func (e *Engine) audioRateTick(now time.Time) {
	for _, slot := range e.slots {
		if !slot.Active {
			continue
		}
		peer := slot.PeerAddr
		slot.Retransmit.RetransmitIfNecessary(now, slot.ExpectedInboundSeq, func(f iax2frame.Full) {
			e.sendFrame(f, peer)
		})
	}
}

// oneSecTick runs keepalive bookkeeping and the inactivity/termination
// sweep once a second.
func (e *Engine) oneSecTick(now time.Time) {
	for id, slot := range e.slots {
		if !slot.Active {
			continue
		}

		if slot.State == StateTerminateWaiting && !now.Before(slot.TerminateAt) {
			slot.Active = false
			slot.State = StateTerminated
			delete(e.slots, id)
			continue
		}

		if slot.State == StateLinked || slot.State == StateUp {
			if now.Sub(slot.LastFrameRecvAt) > e.cfg.InactivityTimeout {
				e.hangup(slot)
				continue
			}
			e.maybeSendKeepalive(slot, now)
		}
	}
}

// maybeSendKeepalive issues PING every 10s (every 2s for the first five
// pings, so a fresh call gets a fast initial delay estimate) and LAGRQ
// every 10s, per spec.md §4.4.
func (e *Engine) maybeSendKeepalive(slot *CallSlot, now time.Time) {
	pingInterval := time.Duration(pingIntervalMs) * time.Millisecond
	if slot.PingCount < pingFastCount {
		pingInterval = time.Duration(pingIntervalFastMs) * time.Millisecond
	}
	if now.Sub(slot.PingSentAt) >= pingInterval {
		e.sendPing(slot)
	}

	if now.Sub(slot.LagRqSentAt) >= time.Duration(lagrqIntervalMs)*time.Millisecond {
		slot.LagRqSentAt = now
		e.sendLagRq(slot)
	}
}

// tenSecTick is reserved for slower-cadence housekeeping (node-db
// pruning is not done by the line engine); currently a no-op placeholder the event loop still calls on
// schedule so future additions don't need a new ticker wired through Run.
func (e *Engine) tenSecTick(now time.Time) {
	_ = now
}
