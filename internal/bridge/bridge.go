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
	"log/slog"
	"time"

	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/parrot"
)

func slotKey(busID, callID uint32) uint64 {
	return uint64(busID)<<32 | uint64(callID)
}

// Bridge is the conference mixer: a bounded roster of BridgeCall slots,
// mixed together once per 20ms audio-rate tick. Like internal/line's
// Engine, it is driven by exactly one goroutine — cmd/root's event loop —
// and holds no internal locking.
type Bridge struct {
	cfg config.Bridge
	log *slog.Logger

	calls map[uint64]*BridgeCall

	startTime time.Time

	// OnMessage sends a message out of the bridge, addressed to a line
	// (outbound voice/signal) or a background collaborator (TTS_REQ,
	// NET_DIAG_1_REQ).
	OnMessage func(m message.Message)
}

// New returns an empty bridge roster.
func New(cfg config.Bridge, log *slog.Logger) *Bridge {
	return &Bridge{
		cfg:       cfg,
		log:       log,
		calls:     make(map[uint64]*BridgeCall),
		startTime: time.Now(),
	}
}

// Handle routes one inbound message to its destination slot, or handles
// the roster-level signals (CALL_START, CALL_END) directly.
func (b *Bridge) Handle(m message.Message) {
	if m.IsSignal(message.SignalCallStart) {
		b.handleCallStart(m)
		return
	}
	if m.IsSignal(message.SignalCallEnd) || m.IsSignal(message.SignalCallTerminate) {
		b.handleCallEnd(m)
		return
	}

	call, ok := b.calls[slotKey(m.SourceBusID, m.SourceCallID)]
	if !ok {
		return
	}

	switch {
	case m.IsVoice() || m.Type == message.TypeAudioInterpolate:
		call.In.Consume(m)
	case m.Type == message.TypeText:
		b.handleDTMF(call, m, time.Now())
	case m.IsSignal(message.SignalRadioKey):
		// Keyup state is implicit in the jitter buffer's talkspurt
		// tracking; nothing further to do here.
	case m.IsSignal(message.SignalRadioUnkey):
		call.unkeyThisTick = true
	}
}

func (b *Bridge) handleCallStart(m message.Message) {
	if len(b.calls) >= b.cfg.MaxCalls {
		b.log.Warn("bridge at capacity, dropping call", "busId", m.SourceBusID, "callId", m.SourceCallID)
		return
	}
	var payload message.PayloadCallStart
	if _, err := payload.UnmarshalMsg(m.Body); err != nil {
		b.log.Error("parse call-start payload", "err", err)
		return
	}

	call := NewBridgeCall(m.SourceBusID, m.SourceCallID, "", iax2frame.CodecType(payload.Codec), payload.Echo, b.cfg.KerchunkTrustWindow, time.Now())
	b.calls[slotKey(m.SourceBusID, m.SourceCallID)] = call

	b.announceJoin(call)
}

func (b *Bridge) handleCallEnd(m message.Message) {
	key := slotKey(m.SourceBusID, m.SourceCallID)
	delete(b.calls, key)
}

// announceJoin tells every other slot that has been a "recent commander"
// (DTMF within 30s) that a new node has joined. The
// announcement itself is a TTS request; the core only dispatches it.
func (b *Bridge) announceJoin(joined *BridgeCall) {
	now := time.Now()
	for _, other := range b.calls {
		if other == joined || !other.IsRecentCommander(now) {
			continue
		}
		b.sendTTS(other, joined.NodeNumber+" has joined")
	}
}

func (b *Bridge) sendTTS(call *BridgeCall, text string) {
	if b.OnMessage == nil {
		return
	}
	req := message.Message{Type: message.TypeTTSRequest, Body: []byte(text)}
	req.SetDest(call.BusID, call.CallID)
	b.OnMessage(req)
}

// AudioRateTick runs the five-step mixer algorithm once per 20ms.
func (b *Bridge) AudioRateTick(now time.Time) {
	localMs := uint32(now.Sub(b.startTime).Milliseconds())

	// Step 1: each slot's BridgeIn produces at most one input frame.
	for _, call := range b.calls {
		if !call.Active {
			continue
		}
		call.In.AudioRateTick(now, localMs)
	}

	// A call in parrot mode is not part of the conference: its audio is
	// recorded/measured/replayed privately, not mixed
	// with the other participants.
	for _, call := range b.calls {
		if !call.Active || call.Mode != ModeParrot {
			continue
		}
		b.tickParrot(call, now)
	}

	// Steps 2-3: mix every other slot's input into each slot's output.
	type contribution struct {
		call  *BridgeCall
		frame []int16
		set   bool
	}
	contributions := make([]contribution, 0, len(b.calls))
	for _, call := range b.calls {
		if !call.Active || call.Mode == ModeParrot {
			continue
		}
		frame, set := call.In.Stage()
		contributions = append(contributions, contribution{call: call, frame: frame, set: set})
	}

	for _, target := range contributions {
		mixCount := 0
		for _, src := range contributions {
			if !src.set {
				continue
			}
			if src.call == target.call && !target.call.Echo {
				continue
			}
			mixCount++
		}

		var accum [FrameSamples]int32
		if mixCount > 0 {
			for _, src := range contributions {
				if !src.set {
					continue
				}
				if src.call == target.call && !target.call.Echo {
					continue
				}
				for i, s := range src.frame {
					accum[i] += int32(s) / int32(mixCount)
				}
			}
		}

		mixed := make([]int16, FrameSamples)
		for i, v := range accum {
			mixed[i] = int16(v)
		}
		target.call.Out.SetConferenceOutput(mixed)
	}

	// Step 4: every slot produces its own output.
	for _, call := range b.calls {
		if !call.Active {
			continue
		}
		b.produceOutput(call)
	}

	// Step 5: clear all input stages happens implicitly — AudioRateTick
	// resets BridgeIn.stageSet at the top of the next tick.

	b.sweepDTMFWindows(now)
}

func (b *Bridge) produceOutput(call *BridgeCall) {
	playFrame := call.PopPlayQueue()
	body, audible := call.Out.ProduceOutput(playFrame)

	if !audible && call.Out.producedAudioLastTick {
		sig := message.NewSignal(message.SignalRadioUnkey)
		sig.SetDest(call.BusID, call.CallID)
		if b.OnMessage != nil {
			b.OnMessage(sig)
		}
	}
	call.Out.producedAudioLastTick = audible

	if audible {
		m := message.NewAudio(uint32(call.Out.codec), body, 0, 0)
		m.SetDest(call.BusID, call.CallID)
		if b.OnMessage != nil {
			b.OnMessage(m)
		}
	}
}

// tickParrot advances a parrot-mode call's recording/measurement/replay
// state machine and forwards whatever it produces this tick: a phrase to
// speak (TTS request) or a recorded frame to queue for playback.
func (b *Bridge) tickParrot(call *BridgeCall, now time.Time) {
	frame, staged := call.In.Stage()
	voiceActive := staged && parrot.NormalizedRMS(frame) > parrot.VoiceActivityThreshold
	unkeyed := call.unkeyThisTick
	call.unkeyThisTick = false

	playback, tts := call.Parrot.Tick(now, frame, voiceActive, unkeyed)
	if tts != "" {
		b.sendTTS(call, tts)
	}
	if playback != nil {
		call.Enqueue(playback)
	}
}
