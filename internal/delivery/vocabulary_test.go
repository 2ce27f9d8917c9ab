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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxWordLength(t *testing.T) {
	for iq, expected := range map[int]int{
		80:  3,
		89:  3,
		90:  4,
		99:  4,
		100: 5,
		119: 5,
		120: 6,
		129: 6,
		130: 7,
		139: 7,
	} {
		limit, limited := maxWordLength(iq)

		assert.True(t, limited, "iq=%d", iq)
		assert.Equal(t, expected, limit, "iq=%d", iq)
	}

	for _, iq := range []int{140, 160, 200} {
		_, limited := maxWordLength(iq)
		assert.False(t, limited, "iq=%d", iq)
	}
}

func TestCheckVocabulary(t *testing.T) {
	ok, limit := CheckVocabulary("see the cat run", 85)
	assert.True(t, ok)
	assert.Equal(t, 3, limit)

	ok, limit = CheckVocabulary("see the cats run", 85)
	assert.False(t, ok)
	assert.Equal(t, 3, limit)
}

func TestCheckVocabularyStripsPunctuation(t *testing.T) {
	// "cat!!!" counts as three characters once punctuation is removed.
	ok, _ := CheckVocabulary(`see the cat!!! "run"`, 85)
	assert.True(t, ok)
}

func TestCheckVocabularyCountsRunes(t *testing.T) {
	// Four runes, more than four bytes.
	ok, _ := CheckVocabulary("äöüß", 95)
	assert.True(t, ok)

	ok, _ = CheckVocabulary("äöüßé", 95)
	assert.False(t, ok)
}

func TestCheckVocabularyUnlimited(t *testing.T) {
	ok, limit := CheckVocabulary("floccinaucinihilipilification", 140)
	assert.True(t, ok)
	assert.Zero(t, limit)
}

func TestCheckVocabularyEmptyText(t *testing.T) {
	ok, _ := CheckVocabulary("", 85)
	assert.True(t, ok)
}
