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

package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinylib/msgp/msgp"

	"github.com/allstarlink/iaxcore/internal/message"
)

func TestMessageMarshalUnmarshalRoundTrip(t *testing.T) {
	t.Parallel()
	m := message.NewAudio(4, []byte{1, 2, 3, 4}, 1000, 1040)
	m.SetSource(1, 7)
	m.SetDest(1, 9)

	raw, err := m.MarshalMsg(nil)
	require.NoError(t, err)

	var got message.Message
	leftover, err := got.UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Empty(t, leftover)

	assert.Equal(t, m.Type, got.Type)
	assert.Equal(t, m.Format, got.Format)
	assert.Equal(t, m.Body, got.Body)
	assert.Equal(t, m.OrigTimestampMs, got.OrigTimestampMs)
	assert.Equal(t, m.RxTimestampMs, got.RxTimestampMs)
	assert.Equal(t, m.SourceBusID, got.SourceBusID)
	assert.Equal(t, m.SourceCallID, got.SourceCallID)
	assert.Equal(t, m.DestBusID, got.DestBusID)
	assert.Equal(t, m.DestCallID, got.DestCallID)
}

func TestMessageSignalRoundTrip(t *testing.T) {
	t.Parallel()
	m := message.NewSignal(message.SignalCallStart)

	raw, err := m.MarshalMsg(nil)
	require.NoError(t, err)

	var got message.Message
	_, err = got.UnmarshalMsg(raw)
	require.NoError(t, err)

	assert.True(t, got.IsSignal(message.SignalCallStart))
	assert.False(t, got.IsVoice())
}

func TestMessageIsVoice(t *testing.T) {
	t.Parallel()
	voice := message.NewAudio(4, nil, 0, 0)
	assert.True(t, voice.IsVoice())

	sig := message.NewSignal(message.SignalRadioKey)
	assert.False(t, sig.IsVoice())
}

func TestPayloadCallStartRoundTrip(t *testing.T) {
	t.Parallel()
	p := message.PayloadCallStart{
		Codec:              4,
		BypassJitterBuffer: true,
		StartMs:            12345,
		Echo:               false,
	}
	raw, err := p.MarshalMsg(nil)
	require.NoError(t, err)

	var got message.PayloadCallStart
	_, err = got.UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPayloadCallRoundTrip(t *testing.T) {
	t.Parallel()
	p := message.PayloadCall{LocalNumber: "61057", TargetNumber: "546"}
	raw, err := p.MarshalMsg(nil)
	require.NoError(t, err)

	var got message.PayloadCall
	_, err = got.UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestMessageUnknownFieldSkipped(t *testing.T) {
	t.Parallel()
	// A map with an extra unrecognised key must still decode cleanly,
	// since UnmarshalMsg falls back to msgp.Skip for unknown keys —
	// this is what lets a newer sender add fields without breaking an
	// older receiver.
	m := message.NewAudio(4, []byte{9}, 10, 20)
	raw := msgp.AppendMapHeader(nil, 2)
	raw = msgp.AppendString(raw, "futureField")
	raw = msgp.AppendInt(raw, 42)
	raw = msgp.AppendString(raw, "body")
	raw = msgp.AppendBytes(raw, m.Body)

	var got message.Message
	leftover, err := got.UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Empty(t, leftover)
	assert.Equal(t, m.Body, got.Body)
}

func TestTypeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "audio", message.TypeAudio.String())
	assert.Equal(t, "signal", message.TypeSignal.String())
	assert.Equal(t, "unknown", message.Type(200).String())
}
