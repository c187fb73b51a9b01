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

import (
	"testing"

	"github.com/allstarlink/iaxcore/internal/iax2frame"
)

func TestULawRoundTripStaysCloseToOriginal(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 16000, -16000}
	for _, s := range samples {
		enc := ulawEncode(s)
		dec := ulawDecode(enc)
		diff := int(dec) - int(s)
		if diff < 0 {
			diff = -diff
		}
		mag := int(s)
		if mag < 0 {
			mag = -mag
		}
		// mu-law is lossy at high magnitudes; only require the
		// round-trip to stay within a few percent.
		tolerance := mag/20 + 40
		if diff > tolerance {
			t.Errorf("ulaw round trip of %d = %d, diff %d exceeds tolerance %d", s, dec, diff, tolerance)
		}
	}
}

func TestDecodeToCommonProducesFrameSamples(t *testing.T) {
	cases := []struct {
		codec iax2frame.CodecType
		body  []byte
	}{
		{iax2frame.CodecG711ULaw, make([]byte, 160)},
		{iax2frame.CodecSLIN, make([]byte, 320)},
		{iax2frame.CodecSLIN16K, make([]byte, 640)},
		{iax2frame.CodecSLIN48K, make([]byte, 1920)},
	}
	for _, c := range cases {
		pcm := decodeToCommon(c.codec, c.body)
		if len(pcm) != FrameSamples {
			t.Errorf("codec %v: got %d samples, want %d", c.codec, len(pcm), FrameSamples)
		}
	}
}

func TestEncodeFromCommonRoundTripsFrameLength(t *testing.T) {
	pcm := make([]int16, FrameSamples)
	for i := range pcm {
		pcm[i] = int16(i)
	}

	body := encodeFromCommon(iax2frame.CodecG711ULaw, pcm)
	if len(body) != 160 {
		t.Errorf("G711 encode: got %d bytes, want 160", len(body))
	}

	back := decodeToCommon(iax2frame.CodecG711ULaw, body)
	if len(back) != FrameSamples {
		t.Errorf("decode after encode: got %d samples, want %d", len(back), FrameSamples)
	}
}

func TestResampleIdentityWhenRatesMatch(t *testing.T) {
	src := []int16{1, 2, 3, 4}
	out := resample(src, 8000, 8000, len(src))
	for i, v := range out {
		if v != src[i] {
			t.Fatalf("identity resample mismatch at %d: got %d want %d", i, v, src[i])
		}
	}
}
