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

package models

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"strconv"

	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
)

var (
	// ErrInvalidAddressFormat is used for strings that do not match the
	// "user#domain" or "user#domain:port" form.
	ErrInvalidAddressFormat = errors.New("address: invalid format")

	// ErrInvalidUsername is used for usernames that are empty, too long or
	// contain characters outside the allowed set.
	ErrInvalidUsername = errors.New("address: invalid username")

	// ZeroAddress is an invalid, zero value Address.
	ZeroAddress Address
)

const maxUsernameLength = 20

var (
	addressPattern  = regexp.MustCompile(`^(.+)#([^:]+)(?::(\d+))?$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-!$%&'*/?=^@.]+$`)
)

// fold is a cases.Caser to fold unicode text. Folding is more or less "compatible" lowercase.
var fold = cases.Fold()

// Address is a sharp address of the form "user#domain" with an optional
// ":port" suffix. A missing port means the peer is found via dns.
type Address struct {
	username string
	domain   string
	port     uint16
}

// Parse splits an address at the "#" sign and an optional ":" sign.
// Username and domain are case-folded so that addresses compare equal
// regardless of their original spelling.
func Parse(raw string) (Address, error) {
	m := addressPattern.FindStringSubmatch(raw)
	if m == nil {
		return ZeroAddress, ErrInvalidAddressFormat
	}

	addr := Address{
		username: fold.String(m[1]),
		domain:   fold.String(m[2]),
	}

	if m[3] != "" {
		port, err := strconv.ParseUint(m[3], 10, 16)
		if err != nil {
			return ZeroAddress, ErrInvalidAddressFormat
		}

		addr.port = uint16(port)
	}

	return addr, nil
}

// ParseValid calls Parse and additionally validates the username.
func ParseValid(raw string) (Address, error) {
	addr, err := Parse(raw)
	if err != nil {
		return addr, err
	}

	if !IsValidUsername(addr.username) {
		return ZeroAddress, ErrInvalidUsername
	}

	return addr, nil
}

// IsValidUsername checks a username against the allowed character set and the
// maximum length of 20 characters.
func IsValidUsername(username string) bool {
	if username == "" || len(username) > maxUsernameLength {
		return false
	}

	return usernamePattern.MatchString(username)
}

// String reconstructs the literal address form.
func (a Address) String() string {
	if a.port == 0 {
		return a.username + "#" + a.domain
	}

	return a.username + "#" + a.domain + ":" + strconv.Itoa(int(a.port))
}

// Username returns the part left of the "#" sign.
func (a Address) Username() string {
	return a.username
}

// Domain returns the part between the "#" sign and the optional ":" sign.
func (a Address) Domain() string {
	return a.domain
}

// Port returns the optional port. A zero port means "resolve via dns".
func (a Address) Port() uint16 {
	return a.port
}

// Host returns the domain with the port appended, if one is present. This is
// the form compared against the server identity.
func (a Address) Host() string {
	if a.port == 0 {
		return a.domain
	}

	return a.domain + ":" + strconv.Itoa(int(a.port))
}

// Scan implements the sql.Scanner interface.
func (a *Address) Scan(src interface{}) error {
	s, err := driver.String.ConvertValue(src)
	if err != nil {
		return err
	}

	v, err := Parse(s.(string))
	if err != nil {
		return err
	}

	*a = v
	return nil
}

// Value implements the sql/driver.Valuer interface.
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// DomainToASCII transforms a unicode domain to punycode for dns lookups.
func DomainToASCII(domain string) (string, error) {
	return idna.Lookup.ToASCII(domain)
}
