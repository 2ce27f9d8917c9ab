// Copyright (C) 2021  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package hashcash validates the proof of work tokens that gate message
// acceptance.
//
// A token is a colon delimited header of the form
//
//	version:bits:date:resource:extension:rand:counter
//
// whose sha1 digest must start with the declared number of zero bits.
package hashcash

import (
	"crypto/sha1"
	"errors"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the embedded timestamp format YYMMDDhhmmss.
const dateLayout = "060102150405"

// ErrMalformedToken is returned when a header does not follow the token
// grammar.
var ErrMalformedToken = errors.New("hashcash: malformed token")

// Token is a parsed proof of work header.
type Token struct {
	// Raw is the unmodified header string. The proof of work digest covers
	// the raw string, not its parts.
	Raw string
	// Bits is the self declared number of leading zero bits.
	Bits int
	// Date is the embedded utc timestamp.
	Date time.Time
	// Resource is the recipient address the token was minted for.
	Resource string
	// Extension is unused, but part of the grammar.
	Extension string
	// Rand is the random discriminator of the token.
	Rand string
	// Counter is the value incremented during minting.
	Counter string
}

// ParseToken parses and validates the grammar of a header string.
func ParseToken(header string) (*Token, error) {
	parts := strings.Split(header, ":")
	if len(parts) != 7 {
		return nil, ErrMalformedToken
	}

	if parts[0] != "1" {
		return nil, ErrMalformedToken
	}

	if parts[1] == "" || parts[2] == "" || parts[3] == "" || parts[5] == "" || parts[6] == "" {
		return nil, ErrMalformedToken
	}

	bits, err := strconv.Atoi(parts[1])
	if err != nil || bits < 0 {
		return nil, ErrMalformedToken
	}

	date, err := time.ParseInLocation(dateLayout, parts[2], time.UTC)
	if err != nil {
		return nil, ErrMalformedToken
	}

	return &Token{
		Raw:       header,
		Bits:      bits,
		Date:      date,
		Resource:  parts[3],
		Extension: parts[4],
		Rand:      parts[5],
		Counter:   parts[6],
	}, nil
}

// CheckProofOfWork computes the sha1 digest of the raw header and reports
// whether its first Bits bits are zero. The declared bit count is tested as
// is, the policy decision which counts are acceptable lies with the caller.
func (t *Token) CheckProofOfWork() bool {
	return hasLeadingZeroBits(sha1.Sum([]byte(t.Raw)), t.Bits)
}

func hasLeadingZeroBits(digest [sha1.Size]byte, bits int) bool {
	if bits <= 0 {
		return bits == 0
	}

	if bits > sha1.Size*8 {
		return false
	}

	for i := 0; i < bits; i++ {
		b := digest[i/8]

		if b&(0x80>>(i%8)) != 0 {
			return false
		}
	}

	return true
}
