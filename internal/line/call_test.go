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

package line_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allstarlink/iaxcore/internal/line"
)

func TestDispenseTimestampNeverGoesBackwards(t *testing.T) {
	t.Parallel()
	c := line.NewCallSlot(line.SideCaller, 1)

	assert.EqualValues(t, 10, c.DispenseTimestamp(10))
	// A second call for the very same tick must still advance by at
	// least one millisecond, never repeat.
	assert.EqualValues(t, 11, c.DispenseTimestamp(10))
	// A tick that has genuinely moved forward wins over last+1.
	assert.EqualValues(t, 50, c.DispenseTimestamp(50))
}

func TestDispenseVoiceTimestampRequestsFullFrameOnRollover(t *testing.T) {
	t.Parallel()
	c := line.NewCallSlot(line.SideCaller, 1)

	ts, needFull := c.DispenseVoiceTimestamp(100)
	assert.EqualValues(t, 100, ts)
	assert.True(t, needFull, "first voice frame always needs a full frame")

	ts2, needFull2 := c.DispenseVoiceTimestamp(101)
	assert.EqualValues(t, 101, ts2)
	assert.False(t, needFull2, "same upper 16 bits: a mini frame suffices")

	ts3, needFull3 := c.DispenseVoiceTimestamp(1<<16 + 5)
	assert.EqualValues(t, 1<<16+5, ts3)
	assert.True(t, needFull3, "upper 16 bits rolled over: must send a full frame")
}

func TestNextOutboundSeqWraps(t *testing.T) {
	t.Parallel()
	c := line.NewCallSlot(line.SideCaller, 1)
	c.OutboundSeq = 255

	assert.EqualValues(t, 255, c.NextOutboundSeq())
	assert.EqualValues(t, 0, c.NextOutboundSeq(), "uint8 overflow wraps to zero")
}
