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

package delivery

import (
	"strings"
	"unicode/utf8"
)

// wordPunctuation is stripped from words before measuring their length.
const wordPunctuation = `.,!?;:"'`

// maxWordLength maps an iq value to the longest permitted word. The second
// return value is false, if there is no limit.
func maxWordLength(iq int) (int, bool) {
	switch {
	case iq < 90:
		return 3, true
	case iq < 100:
		return 4, true
	case iq < 120:
		return 5, true
	case iq < 130:
		return 6, true
	case iq < 140:
		return 7, true
	default:
		return 0, false
	}
}

// CheckVocabulary checks a plain text against the word length limit of the
// senders iq. It returns the violated limit, if the text does not pass.
func CheckVocabulary(text string, iq int) (bool, int) {
	limit, limited := maxWordLength(iq)
	if !limited {
		return true, 0
	}

	for _, word := range strings.Fields(text) {
		cleaned := strings.Map(stripPunctuation, word)

		if utf8.RuneCountInString(cleaned) > limit {
			return false, limit
		}
	}

	return true, limit
}

func stripPunctuation(r rune) rune {
	if strings.ContainsRune(wordPunctuation, r) {
		return -1
	}

	return r
}
