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

// Package message defines the internal event carried between a line's
// jitter buffer, the bridge mixer, and the background collaborators
// (TTS worker, net-diag prober). It is distinct from internal/iax2frame,
// which is the wire codec: a Message is constructed from (or destined
// for) one or more frames, but routing and mixing never touch the wire
// format directly.
package message

// Type discriminates what a Message carries.
//
//go:generate go run github.com/tinylib/msgp
type Type uint8

const (
	TypeNone Type = iota
	TypeAudio
	TypeAudioInterpolate
	TypeText
	TypeSignal
	TypeTTSRequest
	TypeTTSAudio
	TypeTTSEnd
	TypeNetDiag1Request
	TypeNetDiag1Response
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeAudio:
		return "audio"
	case TypeAudioInterpolate:
		return "audio_interpolate"
	case TypeText:
		return "text"
	case TypeSignal:
		return "signal"
	case TypeTTSRequest:
		return "tts_req"
	case TypeTTSAudio:
		return "tts_audio"
	case TypeTTSEnd:
		return "tts_end"
	case TypeNetDiag1Request:
		return "net_diag_1_req"
	case TypeNetDiag1Response:
		return "net_diag_1_res"
	default:
		return "unknown"
	}
}

// SignalType further discriminates a Message whose Type is TypeSignal.
type SignalType uint8

const (
	SignalNone SignalType = iota
	SignalCallStart
	SignalCallEnd
	SignalCallTerminate
	SignalRadioKey
	SignalRadioUnkey
	SignalCallNode
	SignalDropNode
	SignalDropAllNodes
	SignalCOSOn
	SignalCOSOff
)

// MaxBodySize bounds a Message's audio body: one 20ms frame of PCM16 at
// 48kHz (48 samples/ms * 20ms = 960 samples, * 2 bytes, matching the
// widest codec the bridge mixes at).
const MaxBodySize = 160 * 6 * 2

// Message is the unit the line engine's jitter buffer orders, the bridge
// mixes, and the background collaborators (TTS worker, net-diag prober)
// exchange with a call. Routing fields identify the originating and
// destination call slots; bus IDs distinguish multiple concurrently
// running bridges in one process.
type Message struct {
	Type   Type       `msg:"type"`
	Signal SignalType `msg:"signal"`
	Format uint32     `msg:"format"`
	Body   []byte     `msg:"body"`

	OrigTimestampMs uint32 `msg:"origMs"`
	RxTimestampMs   uint32 `msg:"rxMs"`

	SourceBusID  uint32 `msg:"sourceBusId"`
	SourceCallID uint32 `msg:"sourceCallId"`
	DestBusID    uint32 `msg:"destBusId"`
	DestCallID   uint32 `msg:"destCallId"`
}

// IsVoice reports whether the message carries audio samples, satisfying
// internal/jitter.Frame.
func (m Message) IsVoice() bool { return m.Type == TypeAudio }

// OrigMs returns the sender-side origin timestamp, satisfying
// internal/jitter.Frame.
func (m Message) OrigMs() uint32 { return m.OrigTimestampMs }

// RxMs returns the local receive timestamp, satisfying
// internal/jitter.Frame.
func (m Message) RxMs() uint32 { return m.RxTimestampMs }

// IsSignal reports whether the message is a signal of the given kind.
func (m Message) IsSignal(st SignalType) bool {
	return m.Type == TypeSignal && m.Signal == st
}

// SetSource records which bus/call slot produced this message.
func (m *Message) SetSource(busID, callID uint32) {
	m.SourceBusID = busID
	m.SourceCallID = callID
}

// SetDest records which bus/call slot this message is destined for.
func (m *Message) SetDest(busID, callID uint32) {
	m.DestBusID = busID
	m.DestCallID = callID
}

// NewSignal builds a bare signal message carrying no body.
func NewSignal(st SignalType) Message {
	return Message{Type: TypeSignal, Signal: st}
}

// NewAudio builds a voice message carrying codec-encoded samples.
func NewAudio(format uint32, body []byte, origMs, rxMs uint32) Message {
	return Message{
		Type:            TypeAudio,
		Format:          format,
		Body:            body,
		OrigTimestampMs: origMs,
		RxTimestampMs:   rxMs,
	}
}

// NewAudioInterpolate builds a concealment placeholder for a tick that
// produced no voice frame.
func NewAudioInterpolate(format uint32, durationMs, rxMs uint32) Message {
	return Message{
		Type:            TypeAudioInterpolate,
		Format:          format,
		OrigTimestampMs: durationMs,
		RxTimestampMs:   rxMs,
	}
}

// PayloadCallStart is the signal body for SignalCallStart: the codec and
// jitter-buffer configuration a newly accepted call brings up.
type PayloadCallStart struct {
	Codec              uint32 `msg:"codec"`
	BypassJitterBuffer bool   `msg:"bypassJitterBuffer"`
	StartMs            uint32 `msg:"startMs"`
	Echo               bool   `msg:"echo"`
}

// PayloadCall is the signal body for SignalCallNode: a request to place
// an outbound call from a local extension to a remote node/number.
type PayloadCall struct {
	LocalNumber  string `msg:"localNumber"`
	TargetNumber string `msg:"targetNumber"`
}
