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

import "github.com/allstarlink/iaxcore/internal/iax2frame"

// FrameSamples is the sample count of one 20ms frame at the common mix
// rate (48kHz mono), the bridge call slot's input/output staging frame.
const FrameSamples = 960

// commonSampleRate is the rate every BridgeIn up-resamples to and every
// BridgeOut down-resamples from.
const commonSampleRate = 48000

// sampleRateOf returns the native sample rate of a negotiated codec. No
// example repo in the corpus wires a resampling or G.711 library (the
// pack's audio-adjacent code is all RTP/Opus plumbing around an external
// codec, never the codec math itself), so this and the mu-law tables
// below are hand-written against the standard ITU-T G.711 definition
// rather than borrowed from a dependency.
func sampleRateOf(codec iax2frame.CodecType) int {
	switch codec {
	case iax2frame.CodecSLIN48K:
		return 48000
	case iax2frame.CodecSLIN16K:
		return 16000
	case iax2frame.CodecSLIN, iax2frame.CodecG711ULaw:
		return 8000
	default:
		return 8000
	}
}

// decodeToCommon converts a codec-encoded frame body into FrameSamples
// samples of signed 16-bit PCM at commonSampleRate, the shape every
// BridgeIn stage downstream of the jitter buffer operates on.
func decodeToCommon(codec iax2frame.CodecType, body []byte) []int16 {
	var native []int16
	switch codec {
	case iax2frame.CodecG711ULaw:
		native = make([]int16, len(body))
		for i, b := range body {
			native[i] = ulawDecode(b)
		}
	default:
		native = bytesToPCM16(body)
	}
	return resample(native, sampleRateOf(codec), commonSampleRate, FrameSamples)
}

// encodeFromCommon is the BridgeOut inverse: down-resample FrameSamples
// of common-rate PCM to the peer's negotiated codec and encode it.
func encodeFromCommon(codec iax2frame.CodecType, pcm []int16) []byte {
	rate := sampleRateOf(codec)
	native := resample(pcm, commonSampleRate, rate, rate*len(pcm)/commonSampleRate)
	switch codec {
	case iax2frame.CodecG711ULaw:
		out := make([]byte, len(native))
		for i, s := range native {
			out[i] = ulawEncode(s)
		}
		return out
	default:
		return pcm16ToBytes(native)
	}
}

func bytesToPCM16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
	}
	return out
}

func pcm16ToBytes(s []int16) []byte {
	out := make([]byte, len(s)*2)
	for i, v := range s {
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

// resample performs simple linear-interpolation resampling from srcRate
// to dstRate, producing exactly outLen samples. Good enough for narrowband
// telephony audio; nothing in the bridge's mixing math depends on a
// higher-order filter.
func resample(src []int16, srcRate, dstRate, outLen int) []int16 {
	out := make([]int16, outLen)
	if len(src) == 0 || srcRate <= 0 || dstRate <= 0 {
		return out
	}
	if srcRate == dstRate {
		copy(out, src)
		return out
	}
	ratio := float64(len(src)-1) / float64(outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		if idx >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		a, b := float64(src[idx]), float64(src[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// ulaw tables: standard ITU-T G.711 mu-law companding.
const (
	ulawBias = 0x84
	ulawClip = 32635
)

func ulawEncode(sample int16) byte {
	s := int32(sample)
	sign := byte(0)
	if s < 0 {
		sign = 0x80
		s = -s
	}
	if s > ulawClip {
		s = ulawClip
	}
	s += ulawBias

	exponent := byte(7)
	for mask := int32(0x4000); (s&mask) == 0 && exponent > 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte(s>>(exponent+3)) & 0x0f
	return ^(sign | exponent<<4 | mantissa)
}

func ulawDecode(encoded byte) int16 {
	encoded = ^encoded
	sign := encoded & 0x80
	exponent := (encoded >> 4) & 0x07
	mantissa := encoded & 0x0f

	sample := int32(mantissa)<<3 + ulawBias
	sample <<= exponent
	sample -= ulawBias
	if sign != 0 {
		sample = -sample
	}
	return int16(sample)
}
