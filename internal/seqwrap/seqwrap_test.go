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

package seqwrap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/allstarlink/iaxcore/internal/seqwrap"
)

func TestCompareSpecExamples(t *testing.T) {
	t.Parallel()
	assert.Negative(t, seqwrap.Compare(0xFD, 0x04))
	assert.Positive(t, seqwrap.Compare(0x00, 0xFF))
}

func TestCompareReflexive(t *testing.T) {
	t.Parallel()
	for a := 0; a < 256; a++ {
		assert.Zero(t, seqwrap.Compare(uint8(a), uint8(a)))
	}
}

// TestCompareTrichotomyWithinWindow checks that for any base value and any
// offset strictly inside the 127-wide window, Compare imposes a strict,
// antisymmetric order matching the offset's sign, and that it is
// antisymmetric: Compare(a, b) == -Compare(b, a).
func TestCompareTrichotomyWithinWindow(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := uint8(rapid.IntRange(0, 255).Draw(t, "a"))
		offset := rapid.IntRange(1, 127).Draw(t, "offset")
		b := uint8(int(a) + offset)

		cmp := seqwrap.Compare(a, b)
		assert.Negative(t, cmp, "a=%d b=%d offset=%d", a, b, offset)
		assert.Equal(t, -cmp, seqwrap.Compare(b, a))
	})
}

func TestAfterMatchesCompare(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := uint8(rapid.IntRange(0, 255).Draw(t, "a"))
		b := uint8(rapid.IntRange(0, 255).Draw(t, "b"))
		assert.Equal(t, seqwrap.Compare(a, b) > 0, seqwrap.After(a, b))
		assert.Equal(t, seqwrap.Compare(a, b) < 0, seqwrap.Before(a, b))
	})
}
