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

import "github.com/allstarlink/iaxcore/internal/iax2frame"

// codecPreferenceOrder is this bridge's fallback preference when a peer
// sends no FORMAT/codec-prefs IE at all: native 48kHz signed-linear
// first (no transcoding into the bridge's mix format), then the more
// common narrowband codecs, matching the "QHD"-style single-letter
// preference-list convention this network's NEW negotiation uses.
var codecPreferenceOrder = []iax2frame.CodecType{
	iax2frame.CodecSLIN48K,
	iax2frame.CodecSLIN16K,
	iax2frame.CodecSLIN,
	iax2frame.CodecG711ULaw,
}

// NegotiateCodec picks the codec a NEW exchange settles on: the
// intersection of both ends' capability bitmasks, preferring whatever
// the peer's FORMAT IE names if it is actually in that intersection,
// falling back to this bridge's preference order otherwise. It returns
// CodecUnknown if the capability masks share nothing usable.
func NegotiateCodec(localCapability, peerCapability uint32, peerFormat uint32) iax2frame.CodecType {
	shared := localCapability & peerCapability
	if shared == 0 {
		return iax2frame.CodecUnknown
	}

	if peerFormat != 0 && shared&peerFormat == peerFormat {
		return iax2frame.CodecType(peerFormat)
	}

	for _, c := range codecPreferenceOrder {
		if shared&uint32(c) == uint32(c) {
			return c
		}
	}

	// Capability intersection has a bit set this bridge doesn't know by
	// name; report the lowest set bit rather than refusing the call.
	return iax2frame.CodecType(shared & (^shared + 1))
}
