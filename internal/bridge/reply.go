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

package bridge

import "github.com/allstarlink/iaxcore/internal/message"

// DeliverReply accepts a message a background collaborator
// (internal/ttsworker, internal/netdiag) addressed back to one of this
// bridge's calls. Unlike Handle, which keys off SourceBusID/SourceCallID
// (the slot that produced an inbound frame), a collaborator's reply
// addresses its DestBusID/DestCallID (the slot it was asked to serve),
// so it is routed separately rather than through Handle.
func (b *Bridge) DeliverReply(m message.Message) {
	call, ok := b.calls[slotKey(m.DestBusID, m.DestCallID)]
	if !ok {
		return
	}

	switch m.Type {
	case message.TypeTTSAudio:
		call.Enqueue(bytesToInt16s(m.Body))
	case message.TypeTTSEnd:
		// The play queue drains naturally once the last TTS_AUDIO frame
		// has been consumed; nothing further to do here.
	case message.TypeNetDiag1Response:
		// parrot.Parrot's WaitingForNetTest state already advances on its
		// own timeout (spec.md's gate is best-effort, not a hard wait),
		// so a reply that arrives in time needs no state-machine nudge.
	}
}

func bytesToInt16s(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return out
}
