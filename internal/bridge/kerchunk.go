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

import "time"

// kerchunkMinTalkspurtMs is how long a talkspurt must persist before it is
// promoted to trusted and flushed to the mix. The trust window (default
// 60s, config.Bridge.KerchunkTrustWindow) only bounds the overall wait;
// this fills in how long a single talkspurt must run before it is treated
// as real speech rather than a brief, spurious keyup — chosen short
// enough that real speech clears it within one syllable.
const kerchunkMinTalkspurtMs = 300

// kerchunkFilter defers playout of a newly-joined call's leading audio
// until either the call has been up longer than its trust window or the
// current talkspurt has run long enough to look like real speech rather
// than a brief spurious keyup. Untrusted frames are buffered; if the
// talkspurt ends before becoming trusted, the buffer is dropped instead
// of mixed.
type kerchunkFilter struct {
	trustWindow time.Duration
	joinedAt    time.Time

	trusted     bool
	inTalkspurt bool
	talkspurtMs uint32
	buffered    [][]int16
}

func newKerchunkFilter(trustWindow time.Duration, now time.Time) *kerchunkFilter {
	return &kerchunkFilter{trustWindow: trustWindow, joinedAt: now}
}

// Filter is called once per input frame (voice or interpolated silence).
// voice reports whether frame carries real audio (vs. PLC silence); it
// returns the frames (zero or more) that should now enter the mix.
func (k *kerchunkFilter) Filter(now time.Time, frame []int16, voice bool) [][]int16 {
	if k.trusted || now.Sub(k.joinedAt) >= k.trustWindow {
		k.trusted = true
		return [][]int16{frame}
	}

	if !voice {
		// Silence ends any open talkspurt; an untrusted talkspurt that
		// ends without reaching the promotion threshold is a kerchunk
		// and its buffered frames are discarded.
		k.inTalkspurt = false
		k.talkspurtMs = 0
		k.buffered = k.buffered[:0]
		return nil
	}

	k.inTalkspurt = true
	k.talkspurtMs += FrameSamples * 1000 / commonSampleRate
	k.buffered = append(k.buffered, frame)

	if k.talkspurtMs < kerchunkMinTalkspurtMs {
		return nil
	}

	flushed := k.buffered
	k.buffered = nil
	k.trusted = true
	return flushed
}
