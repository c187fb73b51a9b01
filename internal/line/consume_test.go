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
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allstarlink/iaxcore/internal/config"
	"github.com/allstarlink/iaxcore/internal/line"
	"github.com/allstarlink/iaxcore/internal/message"
	"github.com/allstarlink/iaxcore/internal/nodedb"
)

func newTestEngine(t *testing.T) *line.Engine {
	t.Helper()
	cfg := config.Line{Bind: "127.0.0.1", Port: 0, CallSlots: 8}
	dnsCfg := config.DNS{ResolverAddr: "127.0.0.1:53", RootDomain: "nodes.allstarlink.org"}
	e, err := line.New(cfg, dnsCfg, nodedb.New(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestConsumeDropAllNodesHangsUpOutboundCalls(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	slot := e.PlaceCall("61057", "61058")
	require.NotNil(t, slot)
	require.True(t, slot.Active)

	e.Consume(message.NewSignal(message.SignalDropAllNodes))

	require.Equal(t, line.StateTerminateWaiting, slot.State)
}

func TestConsumeIgnoresMessageForUnknownCall(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	m := message.NewAudio(0, []byte{1, 2, 3}, 0, 0)
	m.SetDest(1, 999)
	e.Consume(m) // must not panic
}
