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

package jitter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allstarlink/iaxcore/internal/jitter"
)

type voiceFrame struct {
	orig uint32
	rx   uint32
}

func (f voiceFrame) IsVoice() bool  { return true }
func (f voiceFrame) OrigMs() uint32 { return f.orig }
func (f voiceFrame) RxMs() uint32   { return f.rx }

type fakeSink struct {
	voice        []voiceFrame
	signal       []voiceFrame
	interpolated []uint32
}

func (s *fakeSink) PlayVoice(f voiceFrame) { s.voice = append(s.voice, f) }
func (s *fakeSink) PlaySignal(f voiceFrame) {}
func (s *fakeSink) InterpolateVoice(originMs, localMs, durationMs uint32) {
	s.interpolated = append(s.interpolated, localMs)
}

// fakeSink satisfies jitter.Sink[voiceFrame]; signal delivery isn't
// exercised by the voice-only scenario below so PlaySignal is a no-op.
var _ jitter.Sink[voiceFrame] = (*fakeSink)(nil)

// TestPlayOutLateFrameCatchUpScenario is spec.md §8 scenario 4: frames
// arrive at local times 10, 25, 48, 65, 119ms with origins 0, 20, 40, 60,
// 80ms and the playout margin locked to zero. Playout ticks at 20ms
// multiples: origin 0 plays at tick 20, origin 20 at tick 40, origin 40 at
// tick 60, origin 60 at tick 80. Tick 100 has nothing ready and
// interpolates; origin 80 arrives just after, and tick 120 picks it up by
// moving the cursor back one tick rather than discarding it as late.
func TestPlayOutLateFrameCatchUpScenario(t *testing.T) {
	t.Parallel()

	b := jitter.New[voiceFrame]()
	b.Lock(0)
	sink := &fakeSink{}

	type arrival struct {
		rxMs, origMs uint32
	}
	arrivals := []arrival{
		{10, 0},
		{25, 20},
		{48, 40},
		{65, 60},
		{119, 80},
	}
	nextArrival := 0
	consumeUpTo := func(localMs uint32) {
		for nextArrival < len(arrivals) && arrivals[nextArrival].rxMs <= localMs {
			a := arrivals[nextArrival]
			require.True(t, b.Consume(voiceFrame{orig: a.origMs, rx: a.rxMs}))
			nextArrival++
		}
	}

	for _, tick := range []uint32{20, 40, 60, 80, 100, 120} {
		consumeUpTo(tick)
		b.PlayOut(tick, sink)
	}

	require.Len(t, sink.voice, 5)
	assert.Equal(t, uint32(0), sink.voice[0].orig)
	assert.Equal(t, uint32(20), sink.voice[1].orig)
	assert.Equal(t, uint32(40), sink.voice[2].orig)
	assert.Equal(t, uint32(60), sink.voice[3].orig)
	assert.Equal(t, uint32(80), sink.voice[4].orig)

	require.Len(t, sink.interpolated, 1)
	assert.Equal(t, uint32(100), sink.interpolated[0])
}

func TestResetClearsState(t *testing.T) {
	t.Parallel()
	b := jitter.New[voiceFrame]()
	require.True(t, b.Consume(voiceFrame{orig: 0, rx: 10}))
	sink := &fakeSink{}
	b.PlayOut(20, sink)
	assert.True(t, b.InTalkspurt())

	b.Reset()
	assert.False(t, b.InTalkspurt())
	assert.Zero(t, b.LateCount())
	assert.Zero(t, b.IdealDelayMs())
}

func TestIdealDelayMsZeroBeforeFirstFrame(t *testing.T) {
	t.Parallel()
	b := jitter.New[voiceFrame]()
	assert.Zero(t, b.IdealDelayMs())
}

func TestIdealDelayMsTracksConsistentNetworkDelay(t *testing.T) {
	t.Parallel()
	b := jitter.New[voiceFrame]()
	// A steady 40ms flight time should converge the estimate towards
	// 40ms with near-zero variance, rounding to the nearest tick.
	origin := uint32(0)
	for i := 0; i < 500; i++ {
		require.True(t, b.Consume(voiceFrame{orig: origin, rx: origin + 40}))
		sink := &fakeSink{}
		b.PlayOut(origin+40, sink)
		origin += 20
	}
	assert.InDelta(t, 40, int(b.IdealDelayMs()), 20)
}

func TestLockOverridesAdaptiveMargin(t *testing.T) {
	t.Parallel()
	b := jitter.New[voiceFrame]()
	b.Lock(40)
	require.True(t, b.Consume(voiceFrame{orig: 100, rx: 100}))
	sink := &fakeSink{}
	// With a 40ms locked margin, a frame originated at 100ms should not
	// play until the tick that lands it in [100,120).
	b.PlayOut(40, sink)
	assert.Empty(t, sink.voice)

	b.Unlock()
}

func TestLateDuplicateOriginDiscarded(t *testing.T) {
	t.Parallel()
	b := jitter.New[voiceFrame]()
	b.Lock(0)
	sink := &fakeSink{}

	require.True(t, b.Consume(voiceFrame{orig: 0, rx: 0}))
	b.PlayOut(20, sink)
	require.Len(t, sink.voice, 1)

	// A frame whose origin is at or before the last-played origin is
	// discarded rather than replayed.
	require.True(t, b.Consume(voiceFrame{orig: 0, rx: 40}))
	b.PlayOut(40, sink)
	assert.Len(t, sink.voice, 1)
	assert.EqualValues(t, 1, b.LateCount())
}
