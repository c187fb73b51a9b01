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
	"crypto/ed25519"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allstarlink/iaxcore/internal/line"
)

func TestCallTokenIsStableAndVerifiable(t *testing.T) {
	t.Parallel()
	start := time.Unix(1_700_000_000, 0)
	peer := netip.MustParseAddrPort("203.0.113.5:4569")

	token := line.CallToken(peer, start)
	assert.Len(t, token, 16, "MD5 digest")
	assert.True(t, line.VerifyCallToken(token, peer, start))
}

func TestCallTokenDiffersByPeer(t *testing.T) {
	t.Parallel()
	start := time.Unix(1_700_000_000, 0)
	a := netip.MustParseAddrPort("203.0.113.5:4569")
	b := netip.MustParseAddrPort("203.0.113.6:4569")

	tokenA := line.CallToken(a, start)
	assert.False(t, line.VerifyCallToken(tokenA, b, start))
}

func TestGenerateAuthChallengeLength(t *testing.T) {
	t.Parallel()
	challenge, err := line.GenerateAuthChallenge()
	require.NoError(t, err)
	assert.Len(t, challenge, 16)
}

func TestSignAndVerifyAuthChallenge(t *testing.T) {
	t.Parallel()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	challenge, err := line.GenerateAuthChallenge()
	require.NoError(t, err)

	sig := line.SignAuthChallenge(priv, challenge)
	assert.True(t, line.VerifyAuthChallenge(pub, challenge, sig))
}

func TestVerifyAuthChallengeRejectsWrongKey(t *testing.T) {
	t.Parallel()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	challenge := "ABCDEFGHIJKLMNOP"
	sig := line.SignAuthChallenge(priv, challenge)
	assert.False(t, line.VerifyAuthChallenge(otherPub, challenge, sig))
}
