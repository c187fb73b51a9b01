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

package message

// Consumer receives Messages addressed to it. internal/line,
// internal/bridge, internal/ttsworker, and internal/netdiag each
// implement Consumer so a Router can address all four uniformly
// without importing any of them.
type Consumer interface {
	Consume(m Message)
}

// ConsumerFunc adapts a plain function to Consumer.
type ConsumerFunc func(m Message)

// Consume calls f.
func (f ConsumerFunc) Consume(m Message) { f(m) }

// Router dispatches a Message to whichever Consumer owns it. A bus
// (one internal/line.Engine, normally) registers itself under the bus
// ID its calls use as SourceBusID/DestBusID; a background collaborator
// (internal/ttsworker, internal/netdiag) registers itself against the
// Type of request it answers, since one worker serves every bus in the
// process rather than being scoped to one.
type Router struct {
	buses  map[uint32]Consumer
	byType map[Type]Consumer
}

// NewRouter returns an empty Router; RegisterBus/RegisterType must be
// called before Route does anything useful.
func NewRouter() *Router {
	return &Router{
		buses:  make(map[uint32]Consumer),
		byType: make(map[Type]Consumer),
	}
}

// RegisterBus attaches the Consumer responsible for a bus ID.
func (r *Router) RegisterBus(busID uint32, c Consumer) {
	r.buses[busID] = c
}

// RegisterType attaches the Consumer responsible for every Message of
// the given Type, regardless of destination bus.
func (r *Router) RegisterType(t Type, c Consumer) {
	r.byType[t] = c
}

// Route delivers m to its Consumer. A type-registered collaborator
// takes priority over a bus registration, so a TTS_REQ the bridge
// raises for one of its own calls is answered by the TTS worker rather
// than looping back into the bridge that asked for it. A message with
// no registered destination is silently dropped, the same fate a stale
// bus ID would meet on a real bus.
func (r *Router) Route(m Message) {
	if c, ok := r.byType[m.Type]; ok {
		c.Consume(m)
		return
	}
	if c, ok := r.buses[m.DestBusID]; ok {
		c.Consume(m)
	}
}
