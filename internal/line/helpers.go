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
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"
)

// txtPubkeyPrefix is the published TXT-record key for a node's Ed25519
// public key, hex-encoded: "ed25519-pubkey=<64 hex chars>".
const txtPubkeyPrefix = "ed25519-pubkey="

// parseEd25519PublicKeyTXT extracts the published public key from a
// node's TXT answer strings. Absence or a malformed value yields a nil
// key, which VerifyAuthChallenge always rejects.
func parseEd25519PublicKeyTXT(texts []string) ed25519.PublicKey {
	for _, t := range texts {
		if !strings.HasPrefix(t, txtPubkeyPrefix) {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(t, txtPubkeyPrefix))
		if err != nil || len(raw) != ed25519.PublicKeySize {
			return nil
		}
		return ed25519.PublicKey(raw)
	}
	return nil
}

func addrPortString(addr string, port uint16) string {
	return fmt.Sprintf("%s:%d", addr, port)
}

// mustParseAddrPort parses addrPort, returning the zero value on
// failure rather than panicking; a malformed address here means the
// call simply never gets its peer set and the next tick's inactivity
// check will hang it up.
func mustParseAddrPort(addrPort string) netip.AddrPort {
	ap, err := netip.ParseAddrPort(addrPort)
	if err != nil {
		return netip.AddrPort{}
	}
	return ap
}
