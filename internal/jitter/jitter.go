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

// Package jitter implements the adaptive sequencing/playout buffer that
// absorbs network jitter, reorders voice by origin timestamp, detects
// talkspurts, and drives packet-loss concealment by asking its sink to
// interpolate when a tick produces no voice. The adaptive margin uses
// Ramjee Algorithm 1, the same EWMA delay/variance estimator used for the
// line engine's separate network-delay filter in internal/line.
package jitter

// TickMs is the audio tick period this buffer plays out on.
const TickMs uint32 = 20

// Capacity is the fixed number of entries the buffer holds, roughly one
// second of 20ms voice.
const Capacity = 64

// DefaultTalkspurtTimeoutMs closes an open talkspurt after this much
// local-clock silence, per spec.md §4.3 and the glossary.
const DefaultTalkspurtTimeoutMs uint32 = 60

// Ramjee Algorithm 1 constants (spec.md §4.3).
const (
	alpha = 0.998002
	beta  = 5.0
)

// Frame is the payload type a Buffer orders and plays out. Voice frames
// carry a sender-side origin timestamp and a local receive timestamp;
// non-voice (signal) frames are ordered the same way but bypass the
// cursor/margin logic entirely.
type Frame interface {
	IsVoice() bool
	OrigMs() uint32
	RxMs() uint32
}

// Sink receives frames played out of the buffer. PlayVoice and
// PlaySignal deliver a buffered frame; InterpolateVoice asks the sink to
// synthesize concealment audio for a tick with no frame to play.
type Sink[T Frame] interface {
	PlayVoice(T)
	PlaySignal(T)
	InterpolateVoice(originMs uint32, localMs uint32, durationMs uint32)
}

// Buffer is a fixed-capacity, origin-ordered adaptive jitter/playout
// buffer parameterised over its payload type.
type Buffer[T Frame] struct {
	entries []T

	// Delay/variance estimator state (Ramjee Algorithm 1).
	haveDelayEstimate bool
	delay             float64
	variance          float64

	locked      bool
	lockedMarginMs uint32

	cursorSet           bool
	cursor              int64
	inTalkspurt         bool
	talkspurtFrameCount int
	havePlayed          bool
	lastPlayedOrigin    uint32
	lastPlayedLocalMs   uint32

	lateCount uint
}

// New returns an empty playout buffer.
func New[T Frame]() *Buffer[T] {
	return &Buffer[T]{entries: make([]T, 0, Capacity)}
}

// Reset clears all buffered frames and playout state, as on call
// termination or talkspurt-spanning reconfiguration.
func (b *Buffer[T]) Reset() {
	b.entries = b.entries[:0]
	b.haveDelayEstimate = false
	b.delay = 0
	b.variance = 0
	b.cursorSet = false
	b.cursor = 0
	b.inTalkspurt = false
	b.talkspurtFrameCount = 0
	b.havePlayed = false
	b.lastPlayedOrigin = 0
	b.lastPlayedLocalMs = 0
	b.lateCount = 0
}

// InTalkspurt reports whether the buffer currently considers itself
// mid-talkspurt.
func (b *Buffer[T]) InTalkspurt() bool {
	return b.inTalkspurt
}

// LateCount returns the number of frames discarded as out-of-sequence or
// duplicate since the last Reset.
func (b *Buffer[T]) LateCount() uint {
	return b.lateCount
}

// IdealDelayMs returns the current Ramjee-estimated playout margin,
// D + beta*V, rounded to the nearest 20ms tick. Before any voice frame
// has been consumed this is zero.
func (b *Buffer[T]) IdealDelayMs() uint32 {
	if !b.haveDelayEstimate {
		return 0
	}
	ideal := b.delay + beta*b.variance
	if ideal < 0 {
		return 0
	}
	return roundToNearestTick(ideal)
}

// Lock pins the operative playout margin to marginMs (rounded down to a
// tick boundary); the delay estimator continues to update internally,
// but PlayOut uses marginMs until Unlock is called.
func (b *Buffer[T]) Lock(marginMs uint32) {
	b.locked = true
	b.lockedMarginMs = roundDownToTick(marginMs)
}

// Unlock reverts the operative playout margin to the adaptive estimate.
func (b *Buffer[T]) Unlock() {
	b.locked = false
}

func (b *Buffer[T]) operativeMargin() uint32 {
	if b.locked {
		return b.lockedMarginMs
	}
	return b.IdealDelayMs()
}

// updateDelayEstimate applies Ramjee Algorithm 1 to a newly-consumed
// voice frame's flight time.
func (b *Buffer[T]) updateDelayEstimate(f T) {
	n := float64(int64(f.RxMs()) - int64(f.OrigMs()))
	if !b.haveDelayEstimate {
		b.delay = n
		b.variance = 0
		b.haveDelayEstimate = true
		return
	}
	b.delay = alpha*b.delay + (1-alpha)*n
	b.variance = alpha*b.variance + (1-alpha)*absFloat(b.delay-n)
}

// Consume inserts payload into origin-timestamp order. It returns false
// if the buffer is at Capacity.
func (b *Buffer[T]) Consume(payload T) bool {
	if len(b.entries) >= Capacity {
		return false
	}
	if payload.IsVoice() {
		b.updateDelayEstimate(payload)
	}

	origin := payload.OrigMs()
	idx := len(b.entries)
	for i, e := range b.entries {
		if e.OrigMs() > origin {
			idx = i
			break
		}
	}
	b.entries = append(b.entries, payload)
	copy(b.entries[idx+1:], b.entries[idx:])
	b.entries[idx] = payload

	return true
}

func (b *Buffer[T]) pop() T {
	head := b.entries[0]
	b.entries = b.entries[1:]
	return head
}

// PlayOut is called once per 20ms audio tick. It emits at most one voice
// frame (plus any number of ready signal frames, which are unconditionally
// played in origin order ahead of voice), asks the sink to interpolate
// concealment audio when a talkspurt is open but no voice frame is ready,
// and advances internal state for the next tick.
func (b *Buffer[T]) PlayOut(localMs uint32, sink Sink[T]) {
	// A margin of zero is a legitimate operative value (e.g. while the
	// delay estimator is still cold, or when locked there explicitly)
	// and still runs the full cursor/talkspurt algorithm below — it is
	// not a distinct bypass mode. Bypassing the jitter buffer entirely
	// is a caller-side decision (skip Consume/PlayOut and deliver raw).
	margin := b.operativeMargin()

	emittedVoice := false
	for len(b.entries) > 0 {
		head := b.entries[0]

		if !head.IsVoice() {
			b.pop()
			sink.PlaySignal(head)
			continue
		}

		if b.havePlayed && seqLate(head.OrigMs(), b.lastPlayedOrigin) {
			b.pop()
			b.lateCount++
			continue
		}

		if !b.inTalkspurt {
			tickOrigin := roundDownToTick(head.OrigMs())
			b.cursor = int64(tickOrigin) - int64(margin)
			b.cursorSet = true
			b.inTalkspurt = true
			b.talkspurtFrameCount = 0
		} else if int64(head.OrigMs()) < b.cursor {
			// A frame arriving one tick behind the cursor is still
			// pickable: the catch-up window is at least one tick wide
			// even when the adaptive margin has collapsed to zero,
			// otherwise a single late frame would always be discarded
			// instead of recovered (spec.md §8 scenario 4).
			floor := b.cursor - int64(TickMs)
			if b.havePlayed && int64(b.lastPlayedOrigin) > floor {
				floor = int64(b.lastPlayedOrigin)
			}
			flooredTick := roundDownToTickI64(floor)
			if int64(head.OrigMs()) >= flooredTick {
				b.cursor = int64(roundDownToTick(head.OrigMs()))
			} else {
				b.pop()
				b.lateCount++
				continue
			}
		}

		if int64(head.OrigMs()) >= b.cursor && int64(head.OrigMs()) < b.cursor+int64(TickMs) {
			b.pop()
			b.deliverVoice(head, localMs, sink)
			b.talkspurtFrameCount++
			emittedVoice = true
			break
		}

		// Future frame: nothing more to do this tick.
		break
	}

	if b.inTalkspurt && !emittedVoice {
		cursorMs := uint32(0)
		if b.cursor > 0 {
			cursorMs = uint32(b.cursor)
		}
		sink.InterpolateVoice(cursorMs, localMs, TickMs)
	}

	if b.havePlayed && localMs >= b.lastPlayedLocalMs+DefaultTalkspurtTimeoutMs {
		b.inTalkspurt = false
	}

	b.advanceCursor()
}

func (b *Buffer[T]) deliverVoice(head T, localMs uint32, sink Sink[T]) {
	sink.PlayVoice(head)
	b.lastPlayedOrigin = head.OrigMs()
	b.havePlayed = true
	b.lastPlayedLocalMs = localMs
}

func (b *Buffer[T]) advanceCursor() {
	if b.cursorSet {
		b.cursor += int64(TickMs)
	}
}

// seqLate reports whether head is at or before last, i.e. out-of-sequence
// or a duplicate of an already-played origin timestamp.
func seqLate(head, last uint32) bool {
	return head <= last
}

func roundDownToTick(ms uint32) uint32 {
	return ms - ms%TickMs
}

func roundDownToTickI64(ms int64) int64 {
	m := ms % int64(TickMs)
	if m < 0 {
		m += int64(TickMs)
	}
	return ms - m
}

func roundToNearestTick(ms float64) uint32 {
	ticks := (ms + float64(TickMs)/2) / float64(TickMs)
	if ticks < 0 {
		return 0
	}
	return uint32(ticks) * TickMs
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
