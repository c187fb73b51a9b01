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

// Package line implements one IAX2 line engine: the single UDP socket a
// bridge binds for peer signalling and voice, the per-peer call-slot
// table, the caller/called call state machines, and the DNS state
// machine that resolves node numbers to endpoints. A process runs one
// line engine per configured socket; each owns its sockets exclusively
// and is driven by a single goroutine's cooperative event loop, per
// spec.md §5 — call slots are never touched from any other goroutine.
package line

import (
	"crypto/ed25519"
	"net/netip"
	"time"

	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/retransmit"
)

// NetworkDelayFilter is the second, slower Ramjee-style EWMA filter the
// keepalive loop feeds from PING/PONG and LAGRQ/LAGRP round trips, distinct from the
// jitter buffer's own delay estimator. alpha=0.75 matches spec.md §4.4.
type NetworkDelayFilter struct {
	alpha       float64
	have        bool
	estimateMs  float64
}

// NewNetworkDelayFilter returns a filter seeded with the standard keepalive
// smoothing constant.
func NewNetworkDelayFilter() *NetworkDelayFilter {
	return &NetworkDelayFilter{alpha: 0.75}
}

// Observe folds in a fresh round-trip sample (milliseconds) and returns
// the updated estimate.
func (f *NetworkDelayFilter) Observe(sampleMs float64) float64 {
	if !f.have {
		f.estimateMs = sampleMs
		f.have = true
		return f.estimateMs
	}
	f.estimateMs = f.alpha*f.estimateMs + (1-f.alpha)*sampleMs
	return f.estimateMs
}

// EstimateMs returns the current estimate, zero if no sample has arrived.
func (f *NetworkDelayFilter) EstimateMs() float64 {
	return f.estimateMs
}

// CallSlot is the full per-call record a line engine tracks, matching
// spec.md §3's call data model. Every field here is owned exclusively by
// the engine's single event-loop goroutine.
type CallSlot struct {
	Active  bool
	Side    Side
	State   State
	Trusted bool
	// SourceAddrValidated records whether AuthModeSourceIP's DNS-A
	// comparison (or an equivalent check) has passed for this call.
	SourceAddrValidated bool

	LocalCallID  uint16
	RemoteCallID uint16

	LocalStartTime      time.Time
	LastDispensedTsMs    uint32
	LastDispensedFullTop uint16 // upper 16 bits of the last full-frame timestamp dispensed
	voiceFullSent        bool   // whether DispenseVoiceTimestamp has requested a full frame yet

	OutboundSeq       uint8
	ExpectedInboundSeq uint8

	LocalNodeNumber  string
	RemoteNodeNumber string
	Username         string
	Password         string
	CallToken        []byte

	RemotePublicKey ed25519.PublicKey

	PeerAddr netip.AddrPort

	NegotiatedCodec uint32

	LastFrameRecvAt time.Time
	TerminateAt     time.Time

	Retransmit *retransmit.Buffer

	DNSRequestID uint16

	PingSentAt    time.Time
	PingCount     uint
	LagRqSentAt   time.Time
	LagMs         float64
	DelayFilter   *NetworkDelayFilter

	// AuthChallenge is the random challenge this engine issued (called
	// side, AuthModeChallengeEd25519) or received and must sign (caller
	// side).
	AuthChallenge string

	// srvTarget/srvPort hold the caller-side SRV answer between
	// LOOKUP_0 and LOOKUP_0A, once the follow-up A lookup on the SRV
	// target hostname resolves an address to actually dial.
	srvTarget string
	srvPort   uint16

	// pendingAuthRep holds an AUTHREP signature received before its
	// node's public key had finished resolving, verified once the TXT
	// lookup that was kicked off in reaction completes.
	pendingAuthRep []byte
}

// NewCallSlot returns a slot ready for a caller-side or called-side call,
// with its retransmission buffer and delay filter allocated.
func NewCallSlot(side Side, localCallID uint16) *CallSlot {
	return &CallSlot{
		Active:          true,
		Side:            side,
		State:           StateNone,
		LocalCallID:     localCallID,
		LocalStartTime:  time.Now(),
		Retransmit:      retransmit.New(),
		DelayFilter:     NewNetworkDelayFilter(),
	}
}

// DispenseTimestamp implements spec.md §4.4's general-frame timestamp
// rule: never go backwards, and never dispense the same millisecond
// twice. currentTickMs is milliseconds since the call's LocalStartTime.
func (c *CallSlot) DispenseTimestamp(currentTickMs uint32) uint32 {
	next := c.LastDispensedTsMs + 1
	if currentTickMs > next {
		next = currentTickMs
	}
	c.LastDispensedTsMs = next
	return next
}

// ElapsedMs returns milliseconds since the call's local start time, the
// clock the timestamp dispenser and mini-frame rollover tracking run on.
func (c *CallSlot) ElapsedMs(now time.Time) uint32 {
	return uint32(now.Sub(c.LocalStartTime).Milliseconds())
}

// DispenseVoiceTimestamp implements the voice-frame dispensing rule: a
// mini frame carries only the low 16 bits of the timestamp, so the
// engine must emit a full voice frame for the call's first voice frame and
// whenever the upper 16 bits have rolled over since the last one sent, and
// a mini frame otherwise.
// It returns the full 32-bit timestamp to encode, and whether a full
// (rather than mini) frame must be used to carry it.
func (c *CallSlot) DispenseVoiceTimestamp(currentTickMs uint32) (ts uint32, needFull bool) {
	ts = c.DispenseTimestamp(currentTickMs)
	top := uint16(ts >> 16)
	needFull = !c.voiceFullSent || top != c.LastDispensedFullTop
	if needFull {
		c.LastDispensedFullTop = top
		c.voiceFullSent = true
	}
	return ts, needFull
}

// NextOutboundSeq returns the next outbound sequence number and advances
// the counter, wrapping per spec.md §3 (plain uint8 overflow is the wrap).
func (c *CallSlot) NextOutboundSeq() uint8 {
	seq := c.OutboundSeq
	c.OutboundSeq++
	return seq
}

// Full is a convenience constructor for a full frame carrying this
// slot's call-id pair and the given type/subclass/payload, leaving
// OSeq/ISeq for the caller to fill in via the sequencing policy.
func (c *CallSlot) Full(t iax2frame.FrameType, subclass uint8, payload []byte) iax2frame.Full {
	return iax2frame.Full{
		SourceCallID: c.LocalCallID,
		DestCallID:   c.RemoteCallID,
		Type:         t,
		Subclass:     subclass,
		Payload:      payload,
	}
}
