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

package line

import (
	"crypto/ed25519"
	"crypto/md5" //nolint:gosec // wire-format compatibility, not a security primitive here
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net/netip"
	"time"
)

// CallToken computes the anti-spoofing token for a peer address: a
// receiver can recompute this without holding any per-peer state, so the
// NEW-handling challenge/response round trip never allocates a call slot
// for an address that cannot reproduce it. spec.md §9: MD5("T:" +
// peer-addr + ":" + line-start-time).
func CallToken(peerAddr netip.AddrPort, lineStartTime time.Time) []byte {
	input := fmt.Sprintf("T:%s:%d", peerAddr.String(), lineStartTime.Unix())
	sum := md5.Sum([]byte(input)) //nolint:gosec
	return sum[:]
}

// VerifyCallToken reports whether token matches what CallToken would
// compute for peerAddr, in constant time.
func VerifyCallToken(token []byte, peerAddr netip.AddrPort, lineStartTime time.Time) bool {
	want := CallToken(peerAddr, lineStartTime)
	return len(token) == len(want) && subtle.ConstantTimeCompare(token, want) == 1
}

const authChallengeLen = 16

// GenerateAuthChallenge returns a random challenge string for
// AuthModeChallengeEd25519, the length spec.md §4.4 specifies (16
// characters).
func GenerateAuthChallenge() (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, authChallengeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("line: generate auth challenge: %w", err)
	}
	out := make([]byte, authChallengeLen)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// SignAuthChallenge signs challenge with the caller's Ed25519 private
// key, for the AUTHREP reply's Ed25519-result IE.
func SignAuthChallenge(priv ed25519.PrivateKey, challenge string) []byte {
	return ed25519.Sign(priv, []byte(challenge))
}

// VerifyAuthChallenge verifies an AUTHREP's Ed25519-result IE against
// the challenge this engine issued and the node's DNS TXT-published
// public key.
func VerifyAuthChallenge(pub ed25519.PublicKey, challenge string, signature []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, []byte(challenge), signature)
}
