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

// Package bridge implements the conference mixer: a bounded roster of
// BridgeCall slots, each owning a BridgeIn pipeline
// (jitter buffer, PLC, up-resample, common-format transcode, kerchunk
// filter) and a BridgeOut pipeline (down-resample, transcode), mixed
// together once per 20ms audio-rate tick the same way internal/line
// drives its own tick from a single-threaded event loop.
package bridge

import (
	"math"
	"time"

	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/jitter"
	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/parrot"
)

// Mode is a BridgeCall's current operating mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeParrot
	ModeTone
)

// BridgeIn is one call's inbound pipeline: jitter buffer -> PLC (via the
// jitter buffer's own InterpolateVoice callback) -> up-resample ->
// common-format transcode -> kerchunk filter -> input staging frame.
type BridgeIn struct {
	codec    iax2frame.CodecType
	playout  *jitter.Buffer[message.Message]
	kerchunk *kerchunkFilter

	stage    [FrameSamples]int16
	stageSet bool

	lastVoiced []int16 // last real (non-interpolated) frame, for PLC repeat
}

func newBridgeIn(codec iax2frame.CodecType, kerchunkWindow time.Duration, now time.Time) *BridgeIn {
	return &BridgeIn{
		codec:    codec,
		playout:  jitter.New[message.Message](),
		kerchunk: newKerchunkFilter(kerchunkWindow, now),
	}
}

// sink adapts BridgeIn to jitter.Sink[message.Message].
type bridgeInSink struct {
	in  *BridgeIn
	now time.Time
}

func (s bridgeInSink) PlayVoice(m message.Message) {
	pcm := decodeToCommon(s.in.codec, m.Body)
	s.in.lastVoiced = pcm
	s.in.accept(s.now, pcm, true)
}

func (s bridgeInSink) PlaySignal(m message.Message) {
	// Signal frames bypass the audio stage entirely; the bridge's own
	// router dispatches them directly from the line, not through here.
}

func (s bridgeInSink) InterpolateVoice(originMs, localMs, durationMs uint32) {
	pcm := s.in.lastVoiced
	if pcm == nil {
		pcm = make([]int16, FrameSamples)
	}
	s.in.accept(s.now, pcm, false)
}

func (in *BridgeIn) accept(now time.Time, pcm []int16, voice bool) {
	flushed := in.kerchunk.Filter(now, pcm, voice)
	for _, f := range flushed {
		copy(in.stage[:], f)
		in.stageSet = true
	}
}

// Consume feeds one inbound line message (voice or interpolation marker)
// into the jitter buffer; actual delivery into the input stage happens
// on the next AudioRateTick via PlayOut.
func (in *BridgeIn) Consume(m message.Message) {
	if m.IsVoice() {
		in.playout.Consume(m)
	}
}

// AudioRateTick drains at most one voice frame (or PLC concealment) from
// the jitter buffer into the input staging frame (step 1 of the mixer tick).
func (in *BridgeIn) AudioRateTick(now time.Time, localMs uint32) {
	in.stageSet = false
	in.playout.PlayOut(localMs, bridgeInSink{in: in, now: now})
}

// Stage returns the input staging frame and whether it is set this tick.
func (in *BridgeIn) Stage() ([]int16, bool) {
	return in.stage[:], in.stageSet
}

// BridgeOut is one call's outbound pipeline: conference mix (or play
// queue) -> down-resample -> codec transcode -> line.
type BridgeOut struct {
	codec iax2frame.CodecType

	stage      [FrameSamples]int16
	stageReady bool

	producedAudioLastTick bool
}

func newBridgeOut(codec iax2frame.CodecType) *BridgeOut {
	return &BridgeOut{codec: codec}
}

// SetConferenceOutput copies the mixed conference buffer into this call's
// output stage (step 3 of the mixer tick).
func (out *BridgeOut) SetConferenceOutput(mixed []int16) {
	copy(out.stage[:], mixed)
	out.stageReady = true
}

// ProduceOutput combines any queued
// play-queue frame with the conference output (averaging when both are
// present), encode to the peer's negotiated codec, and report whether
// the result is audible (vs. pure silence).
func (out *BridgeOut) ProduceOutput(playQueueFrame []int16) (body []byte, audible bool) {
	var mixed [FrameSamples]int16
	switch {
	case out.stageReady && playQueueFrame != nil:
		for i := range mixed {
			mixed[i] = int16((int32(out.stage[i]) + int32(playQueueFrame[i])) / 2)
		}
	case playQueueFrame != nil:
		copy(mixed[:], playQueueFrame)
	case out.stageReady:
		mixed = out.stage
	}
	out.stageReady = false

	audible = rmsOf(mixed[:]) > silenceRMSThreshold
	return encodeFromCommon(out.codec, mixed[:]), audible
}

const silenceRMSThreshold = 1.0

func rmsOf(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range pcm {
		sumSq += float64(s) * float64(s)
	}
	mean := sumSq / float64(len(pcm))
	return math.Sqrt(mean)
}

// BridgeCall is one slot in the bridge's roster.
type BridgeCall struct {
	Active bool
	Mode   Mode

	BusID  uint32
	CallID uint32

	NodeNumber string
	Echo       bool

	In  *BridgeIn
	Out *BridgeOut

	PlayQueue [][]int16

	JoinedAt time.Time

	dtmfAccum     string
	lastDTMFAt    time.Time
	lastCommandAt time.Time

	// unkeyThisTick is set by Bridge.Handle when a SignalRadioUnkey
	// arrives; only the parrot-mode tick reads and clears it.
	unkeyThisTick bool

	Parrot *parrot.Parrot
}

// NewBridgeCall allocates a slot configured for the negotiated codec,
// per the SignalCallStart payload the line publishes on accept.
func NewBridgeCall(busID, callID uint32, nodeNumber string, codec iax2frame.CodecType, echo bool, kerchunkWindow time.Duration, now time.Time) *BridgeCall {
	return &BridgeCall{
		Active:     true,
		Mode:       ModeNormal,
		BusID:      busID,
		CallID:     callID,
		NodeNumber: nodeNumber,
		Echo:       echo,
		In:         newBridgeIn(codec, kerchunkWindow, now),
		Out:        newBridgeOut(codec),
		JoinedAt:   now,
	}
}

// IsRecentCommander reports whether this slot issued a DTMF command
// within the last 30s, the "recent commanders" join-announce audience.
func (c *BridgeCall) IsRecentCommander(now time.Time) bool {
	return !c.lastCommandAt.IsZero() && now.Sub(c.lastCommandAt) <= 30*time.Second
}

// PopPlayQueue returns and removes the head of the play queue, or nil.
func (c *BridgeCall) PopPlayQueue() []int16 {
	if len(c.PlayQueue) == 0 {
		return nil
	}
	head := c.PlayQueue[0]
	c.PlayQueue = c.PlayQueue[1:]
	return head
}

// Enqueue appends a PCM frame (tone, TTS, recorded audio) to the play
// queue.
func (c *BridgeCall) Enqueue(frame []int16) {
	c.PlayQueue = append(c.PlayQueue, frame)
}
