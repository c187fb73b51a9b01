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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allstarlink/iaxcore/internal/message"
)

func TestDeliverReplyEnqueuesTTSAudio(t *testing.T) {
	b := newTestBridge(t)
	call := NewBridgeCall(1, 1, "1000", 0, false, 0, time.Now())
	b.calls[slotKey(1, 1)] = call

	frame := []int16{1, -2, 3}
	raw := int16sToWire(frame)
	m := message.Message{Type: message.TypeTTSAudio, Body: raw}
	m.SetDest(1, 1)
	b.DeliverReply(m)

	require.Len(t, call.PlayQueue, 1)
	assert.Equal(t, frame, call.PlayQueue[0])
}

func TestDeliverReplyIgnoresUnknownCall(t *testing.T) {
	b := newTestBridge(t)
	m := message.Message{Type: message.TypeTTSAudio, Body: []byte{0, 0}}
	m.SetDest(99, 99)
	b.DeliverReply(m) // must not panic
}

func TestCommandParrotSendsNetDiagProbe(t *testing.T) {
	b := newTestBridge(t)
	call := NewBridgeCall(1, 1, "1000", 0, false, 0, time.Now())
	b.calls[slotKey(1, 1)] = call

	var got []message.Message
	b.OnMessage = func(m message.Message) { got = append(got, m) }

	b.commandParrot(call, time.Now())

	require.Len(t, got, 1)
	assert.Equal(t, message.TypeNetDiag1Request, got[0].Type)
	assert.Equal(t, uint32(1), got[0].DestBusID)
	assert.Equal(t, uint32(1), got[0].DestCallID)
}

func int16sToWire(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}
