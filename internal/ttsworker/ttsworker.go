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

// Package ttsworker answers TTS_REQ messages with a stream of TTS_AUDIO
// messages followed by TTS_END, the background collaborator named in
// spec.md §5 ("a TTS synthesis worker that consumes TTS_REQ messages
// and produces a stream of TTS_AUDIO ... followed by TTS_END"). A real
// deployment would shell out to a speech engine (Piper, say); this
// package's Synthesizer is a tone-based stand-in, so the rest of the
// core can be exercised end to end without an external TTS dependency
// this environment can't fetch.
package ttsworker

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/queue"
)

const (
	frameSamples = 960 // 20ms @ 48kHz, matching internal/bridge.FrameSamples
	sampleRate   = 48000

	toneHz        = 440.0
	toneAmplitude = 8000

	// msPerChar paces the stub synthesizer's output so a longer phrase
	// takes proportionally longer to "speak" — long enough that a
	// multi-word announcement still streams over several ticks rather
	// than landing as one oversized burst.
	msPerChar = 60
)

// Synthesizer turns TTS_REQ text into a PCM16/48kHz waveform. The
// default Synthesizer is ToneSynthesizer; a real deployment would swap
// in one that shells out to an external engine.
type Synthesizer interface {
	Synthesize(text string) []int16
}

// ToneSynthesizer produces a single sine tone whose duration scales
// with the text length, standing in for actual speech synthesis.
type ToneSynthesizer struct{}

// Synthesize returns one continuous tone scaled to roughly the time a
// TTS engine would take to speak text.
func (ToneSynthesizer) Synthesize(text string) []int16 {
	durationMs := len(text) * msPerChar
	if durationMs <= 0 {
		durationMs = msPerChar
	}
	n := durationMs * sampleRate / 1000
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = int16(toneAmplitude * math.Sin(2*math.Pi*toneHz*t))
	}
	return out
}

// request tracks one in-flight TTS_REQ's destination so Tick knows
// where to address the TTS_AUDIO/TTS_END frames it drains for it.
type request struct {
	destBusID  uint32
	destCallID uint32
}

// Worker is a Consumer that queues synthesized audio on TTS_REQ and
// drains it one 20ms frame at a time on Tick, so a phrase streams out
// the way a real speech engine's output would rather than arriving as
// one oversized message.
type Worker struct {
	log  *slog.Logger
	synth Synthesizer

	pending  *queue.Queue
	requests map[uint64]request

	// OnMessage emits a TTS_AUDIO or TTS_END message back onto the bus.
	OnMessage func(m message.Message)
}

// New returns a Worker backed by ToneSynthesizer.
func New(log *slog.Logger) *Worker {
	return &Worker{
		log:      log,
		synth:    ToneSynthesizer{},
		pending:  queue.NewQueue(),
		requests: make(map[uint64]request),
	}
}

func requestKey(busID, callID uint32) uint64 {
	return uint64(busID)<<32 | uint64(callID)
}

func queueKey(key uint64) string {
	return strconv.FormatUint(key, 36)
}

// Consume accepts a TTS_REQ and queues its synthesized audio for Tick
// to drain; any other message type is ignored.
func (w *Worker) Consume(m message.Message) {
	if m.Type != message.TypeTTSRequest {
		return
	}

	text := string(m.Body)
	samples := w.synth.Synthesize(text)
	key := requestKey(m.DestBusID, m.DestCallID)
	w.requests[key] = request{destBusID: m.DestBusID, destCallID: m.DestCallID}

	for i := 0; i < len(samples); i += frameSamples {
		end := i + frameSamples
		if end > len(samples) {
			end = len(samples)
		}
		chunk := make([]int16, frameSamples)
		copy(chunk, samples[i:end])
		raw := int16sToBytes(chunk)
		if _, err := w.pending.Push(queueKey(key), raw); err != nil {
			w.log.Error("tts: queue frame", "err", err)
		}
	}
}

// Tick drains at most one queued frame per pending request and emits it
// as a TTS_AUDIO message; once a request's queue is empty it emits
// TTS_END and forgets the request.
func (w *Worker) Tick() {
	if w.OnMessage == nil {
		return
	}
	for key, req := range w.requests {
		qk := queueKey(key)
		frames := w.pending.Drain(qk)
		if len(frames) == 0 {
			delete(w.requests, key)
			end := message.Message{Type: message.TypeTTSEnd}
			end.SetDest(req.destBusID, req.destCallID)
			w.OnMessage(end)
			continue
		}

		audio := message.Message{Type: message.TypeTTSAudio, Body: frames[0]}
		audio.SetDest(req.destBusID, req.destCallID)
		w.OnMessage(audio)

		for _, rest := range frames[1:] {
			if _, err := w.pending.Push(qk, rest); err != nil {
				w.log.Error("tts: requeue frame", "err", err)
			}
		}
	}
}

func int16sToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}
