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

	"github.com/allstarlink/iaxcore/internal/iax2frame"
	"github.com/allstarlink/iaxcore/internal/line"
)

func TestNegotiateCodecNoSharedBitsIsUnknown(t *testing.T) {
	t.Parallel()
	codec := line.NegotiateCodec(uint32(iax2frame.CodecSLIN48K), uint32(iax2frame.CodecG711ULaw), 0)
	assert.Equal(t, iax2frame.CodecUnknown, codec)
}

func TestNegotiateCodecPrefersPeerFormatWhenShared(t *testing.T) {
	t.Parallel()
	local := uint32(iax2frame.CodecSLIN48K) | uint32(iax2frame.CodecG711ULaw)
	peerCap := uint32(iax2frame.CodecSLIN48K) | uint32(iax2frame.CodecG711ULaw)
	codec := line.NegotiateCodec(local, peerCap, uint32(iax2frame.CodecG711ULaw))
	assert.Equal(t, iax2frame.CodecG711ULaw, codec)
}

func TestNegotiateCodecFallsBackToPreferenceOrder(t *testing.T) {
	t.Parallel()
	local := uint32(iax2frame.CodecSLIN48K) | uint32(iax2frame.CodecG711ULaw)
	peerCap := uint32(iax2frame.CodecSLIN48K) | uint32(iax2frame.CodecG711ULaw)
	// Peer's FORMAT names something outside the intersection: ignored.
	codec := line.NegotiateCodec(local, peerCap, uint32(iax2frame.CodecSLIN16K))
	assert.Equal(t, iax2frame.CodecSLIN48K, codec)
}

func TestNegotiateCodecIgnoresZeroFormat(t *testing.T) {
	t.Parallel()
	local := uint32(iax2frame.CodecSLIN) | uint32(iax2frame.CodecG711ULaw)
	peerCap := uint32(iax2frame.CodecG711ULaw)
	codec := line.NegotiateCodec(local, peerCap, 0)
	assert.Equal(t, iax2frame.CodecG711ULaw, codec)
}
