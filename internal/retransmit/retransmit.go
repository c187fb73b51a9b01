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

// Package retransmit holds outbound reliable IAX2 full frames until the
// peer's reported expected-inbound sequence advances past them, and
// drives timer-based retransmission of anything that goes unacknowledged
// for too long.
package retransmit

import (
	"errors"
	"time"

	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/seqwrap"
)

// Capacity is the fixed number of outbound frames a single call's buffer
// can hold awaiting acknowledgment.
const Capacity = 16

// Interval is how long an unacknowledged frame waits before it is
// retransmitted.
const Interval = 2000 * time.Millisecond

// ErrFull is returned by Consume when the buffer has no free slot.
var ErrFull = errors.New("retransmit: buffer full")

// ErrDuplicateSeq is returned by Consume when a frame with the same
// outbound sequence is already buffered — the source never proves this
// can't happen, so callers should treat it as a bug signal (spec.md §9).
var ErrDuplicateSeq = errors.New("retransmit: duplicate outbound sequence")

// Sink receives a frame to be sent on the wire, either original or
// retransmitted.
type Sink func(iax2frame.Full)

type entry struct {
	frame    iax2frame.Full
	sentAt   time.Time
	oseq     uint8
}

// Buffer is a fixed-capacity, sequence-ordered collection of outbound
// full frames awaiting the peer's acknowledgment.
type Buffer struct {
	entries          []entry
	expectedPeerSeq  uint8
	haveExpectedSeq  bool
	retransmitCount  uint
}

// New returns an empty retransmission buffer.
func New() *Buffer {
	return &Buffer{entries: make([]entry, 0, Capacity)}
}

// Empty reports whether the buffer currently holds no frames.
func (b *Buffer) Empty() bool {
	return len(b.entries) == 0
}

// RetransmitCount returns the number of retransmissions this buffer has
// emitted over its lifetime.
func (b *Buffer) RetransmitCount() uint {
	return b.retransmitCount
}

// Consume appends frame for future retransmission, keyed on its outbound
// sequence number. It fails if the buffer is full or a frame with the
// same outbound sequence is already present.
func (b *Buffer) Consume(frame iax2frame.Full, now time.Time) error {
	for _, e := range b.entries {
		if e.oseq == frame.OSeq {
			return ErrDuplicateSeq
		}
	}
	if len(b.entries) >= Capacity {
		return ErrFull
	}
	b.entries = append(b.entries, entry{frame: frame, sentAt: now, oseq: frame.OSeq})
	return nil
}

// SetExpectedSeq advances the peer's reported expected-inbound sequence
// high-water mark and evicts every buffered frame whose outbound
// sequence now precedes it. A regression (n moving the mark backwards)
// is tolerated and ignored, returning false.
func (b *Buffer) SetExpectedSeq(n uint8) bool {
	if b.haveExpectedSeq && seqwrap.Compare(n, b.expectedPeerSeq) < 0 {
		return false
	}
	b.expectedPeerSeq = n
	b.haveExpectedSeq = true

	kept := b.entries[:0]
	for _, e := range b.entries {
		if seqwrap.Compare(e.oseq, n) >= 0 {
			kept = append(kept, e)
		}
	}
	b.entries = kept

	return true
}

// RetransmitIfNecessary emits a retransmitted copy (retransmit bit set,
// inbound-sequence field rewritten to expectedInSeq) of every buffered
// frame whose send time is older than Interval.
func (b *Buffer) RetransmitIfNecessary(now time.Time, expectedInSeq uint8, sink Sink) {
	for i := range b.entries {
		e := &b.entries[i]
		if now.Sub(e.sentAt) < Interval {
			continue
		}
		b.emitRetransmit(e, expectedInSeq, sink)
		e.sentAt = now
	}
}

// RetransmitToSeq emits retransmitted copies of every buffered frame
// whose outbound sequence is at most target, bounded for servicing a
// peer's VNAK.
func (b *Buffer) RetransmitToSeq(target uint8, expectedInSeq uint8, sink Sink) {
	for i := range b.entries {
		e := &b.entries[i]
		if seqwrap.Compare(e.oseq, target) > 0 {
			continue
		}
		b.emitRetransmit(e, expectedInSeq, sink)
	}
}

func (b *Buffer) emitRetransmit(e *entry, expectedInSeq uint8, sink Sink) {
	retx := e.frame
	retx.Retransmit = true
	retx.ISeq = expectedInSeq
	b.retransmitCount++
	sink(retx)
}
