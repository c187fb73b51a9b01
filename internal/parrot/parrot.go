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

// Package parrot implements the "talk and it plays you back" diagnostic
// mode: record until silence, measure peak/RMS power,
// speak the measurement, then replay the recording. It is grounded on
// DMRHub's internal/dmr/parrot (record/stop/replay), adapted from a
// KV-backed distributed stream registry into a plain per-call state
// machine, since a bridge call slot is owned by exactly one goroutine
// and needs no cross-process lookup.
package parrot

import (
	"math"
	"time"
)

// sampleRate is the PCM rate frames are supplied and measured at. It
// matches the bridge's common mix rate (48kHz mono); this package has no
// reason to depend on the bridge package just to name that constant.
const sampleRate = 48000

// State is a step in the parrot mode's conversational script.
type State int

const (
	Connected State = iota
	WaitingForNetTest
	Greeting0
	TTSGreeting0
	PlayingGreeting0
	Greeting1
	TTSGreeting1
	PlayingGreeting1
	WaitingForRecord
	Recording
	PauseAfterRecord
	TTSAfterRecord
	PlayingAfterRecord
)

const (
	silenceTimeout   = 5 * time.Second
	unkeyGrace       = 250 * time.Millisecond
	trim             = 300 * time.Millisecond
	voiceActivityRMS = 0.005 // normalized RMS threshold
	netTestWindow    = 2 * time.Second
	pauseAfterRecord = 500 * time.Millisecond
)

// Parrot tracks one call's progress through the record/measure/replay
// script. The caller is responsible for feeding it one 20ms frame per
// tick and driving any TTS/playback it requests.
type Parrot struct {
	state State

	recorded  []int16
	playIdx   int
	maxRecord int

	enteredAt     time.Time
	lastVoiceAt   time.Time
	lastUnkeyAt   time.Time
	recordStarted time.Time
}

// New starts a parrot session in its initial state.
func New(now time.Time) *Parrot {
	return &Parrot{
		state:     Connected,
		enteredAt: now,
		maxRecord: sampleRate * 60, // cap a single recording at 60s
	}
}

// State reports the current step.
func (p *Parrot) State() State { return p.state }

// Tick advances the state machine by one 20ms frame. inputFrame is this
// tick's conference-excluded input (post jitter/PLC/kerchunk); voiceActive
// reports whether it looks like speech (RMS above threshold); unkeyed
// reports whether a RADIO_UNKEY arrived this tick. It returns a PCM frame
// to enqueue for playback (or nil) and a phrase to speak via TTS (or "").
func (p *Parrot) Tick(now time.Time, inputFrame []int16, voiceActive, unkeyed bool) (playback []int16, tts string) {
	if voiceActive {
		p.lastVoiceAt = now
	}
	if unkeyed {
		p.lastUnkeyAt = now
	}

	switch p.state {
	case Connected:
		p.enteredAt = now
		p.state = WaitingForNetTest

	case WaitingForNetTest:
		// A real deployment gates this on a NET_DIAG_1 round trip; absent
		// that response within netTestWindow, proceed anyway so the
		// session is never stuck waiting on a collaborator that never
		// replies.
		if now.Sub(p.enteredAt) >= netTestWindow {
			p.state = Greeting0
		}

	case Greeting0:
		p.state = TTSGreeting0

	case TTSGreeting0:
		tts = "parrot mode engaged"
		p.state = PlayingGreeting0

	case PlayingGreeting0:
		p.state = Greeting1

	case Greeting1:
		p.state = TTSGreeting1

	case TTSGreeting1:
		tts = "say something after the tone and it will be played back to you"
		p.state = PlayingGreeting1

	case PlayingGreeting1:
		p.recorded = p.recorded[:0]
		p.state = WaitingForRecord

	case WaitingForRecord:
		if voiceActive {
			p.recordStarted = now
			p.lastVoiceAt = now
			p.recorded = append(p.recorded[:0], inputFrame...)
			p.state = Recording
		}

	case Recording:
		if len(p.recorded) < p.maxRecord {
			p.recorded = append(p.recorded, inputFrame...)
		}
		silentFor := now.Sub(p.lastVoiceAt)
		stoppedByUnkey := !p.lastUnkeyAt.IsZero() && p.lastUnkeyAt.After(p.recordStarted) && now.Sub(p.lastUnkeyAt) >= unkeyGrace
		if silentFor >= silenceTimeout || stoppedByUnkey {
			p.state = PauseAfterRecord
			p.enteredAt = now
		}

	case PauseAfterRecord:
		if now.Sub(p.enteredAt) >= pauseAfterRecord {
			peakDB, rmsDB := measureTrimmed(p.recorded)
			tts = formatMeasurement(peakDB, rmsDB)
			p.state = TTSAfterRecord
		}

	case TTSAfterRecord:
		p.state = PlayingAfterRecord
		p.playIdx = 0
		fallthrough

	case PlayingAfterRecord:
		const frameSamples = 960
		if p.playIdx >= len(p.recorded) {
			p.state = WaitingForRecord
			p.recorded = nil
			break
		}
		end := p.playIdx + frameSamples
		if end > len(p.recorded) {
			end = len(p.recorded)
		}
		chunk := make([]int16, frameSamples)
		copy(chunk, p.recorded[p.playIdx:end])
		p.playIdx = end
		playback = chunk
	}

	return playback, tts
}

func formatMeasurement(peakDB, rmsDB float64) string {
	return "peak " + formatDB(peakDB) + " dB, average " + formatDB(rmsDB) + " dB"
}

func formatDB(v float64) string {
	// Simple fixed-point rendering (one decimal place) without pulling in
	// fmt's width/verb machinery for a single number.
	neg := v < 0
	if neg {
		v = -v
	}
	whole := int(v)
	frac := int((v - float64(whole)) * 10)
	s := itoa(whole) + "." + itoa(frac)
	if neg {
		s = "-" + s
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// measureTrimmed trims trim's worth of samples from each end of recorded
// and reports its peak and RMS power in dBFS.
func measureTrimmed(recorded []int16) (peakDB, rmsDB float64) {
	trimSamples := int(trim.Seconds() * sampleRate)
	if len(recorded) <= 2*trimSamples {
		trimSamples = 0
	}
	body := recorded[trimSamples : len(recorded)-trimSamples]
	if len(body) == 0 {
		return -96, -96
	}

	var peak float64
	var sumSq float64
	for _, s := range body {
		v := math.Abs(float64(s))
		if v > peak {
			peak = v
		}
		sumSq += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSq / float64(len(body)))

	return dBFS(peak), dBFS(rms)
}

// dBFS converts a linear 16-bit-scale sample magnitude to decibels
// relative to full scale, floored at -96dB (16-bit noise floor).
func dBFS(sample float64) float64 {
	if sample <= 0 {
		return -96
	}
	db := 20 * math.Log10(sample/32768)
	if db < -96 {
		return -96
	}
	return db
}

// NormalizedRMS reports the RMS power of a PCM frame normalized to
// [0,1], for comparison against voiceActivityRMS-style thresholds.
func NormalizedRMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range pcm {
		sumSq += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSq / float64(len(pcm)))
	return rms / 32768
}

// VoiceActivityThreshold is the normalized RMS floor above which a frame
// counts as speech rather than silence.
const VoiceActivityThreshold = voiceActivityRMS
