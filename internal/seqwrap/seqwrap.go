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

// Package seqwrap implements wrap-aware comparison of the 8-bit outbound
// and inbound sequence numbers carried on every IAX2 full frame.
package seqwrap

// Compare orders two 8-bit sequence numbers under wraparound the same
// way TCP sequence numbers are compared: the difference a-b is taken
// modulo 256 and reinterpreted as a signed byte, so a 128-wide window
// around either value determines which one is "earlier". Returns a
// negative value if a precedes b, zero if equal, a positive value if a
// follows b.
func Compare(a, b uint8) int {
	diff := int8(a - b)
	switch {
	case diff < 0:
		return -1
	case diff > 0:
		return 1
	default:
		return 0
	}
}

// After reports whether a logically follows b under wraparound.
func After(a, b uint8) bool {
	return Compare(a, b) > 0
}

// AfterOrEqual reports whether a logically follows or equals b under wraparound.
func AfterOrEqual(a, b uint8) bool {
	return Compare(a, b) >= 0
}

// Before reports whether a logically precedes b under wraparound.
func Before(a, b uint8) bool {
	return Compare(a, b) < 0
}
