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

package hashcash

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

const testResource = "someone#example.com"

var testNow = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

// mintHeader brute-forces a counter until the header actually exhibits the
// declared number of leading zero bits.
func mintHeader(t *testing.T, bits int, date time.Time, resource string) string {
	t.Helper()

	for counter := 0; ; counter++ {
		header := fmt.Sprintf("1:%d:%s:%s::rand:%d",
			bits, date.UTC().Format(dateLayout), resource, counter)

		token, err := ParseToken(header)
		require.NoError(t, err)

		if token.CheckProofOfWork() {
			return header
		}
	}
}

// mintInvalidHeader finds a counter whose digest does not satisfy the
// declared bit count.
func mintInvalidHeader(t *testing.T, bits int, date time.Time, resource string) string {
	t.Helper()

	for counter := 0; ; counter++ {
		header := fmt.Sprintf("1:%d:%s:%s::rand:%d",
			bits, date.UTC().Format(dateLayout), resource, counter)

		token, err := ParseToken(header)
		require.NoError(t, err)

		if !token.CheckProofOfWork() {
			return header
		}
	}
}

func newTestScorer(hashcashDao database.HashcashDao) *scorer {
	s := NewScorer(nil, hashcashDao).(*scorer)
	s.clock = func() time.Time { return testNow }

	return s
}

func TestScoreTiers(t *testing.T) {
	hashcashDao := new(database.MockHashcashDao)
	hashcashDao.On("ExistsUsed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	s := newTestScorer(hashcashDao)
	ctx := context.Background()

	for bits, expected := range map[int]Score{
		18: ScoreGood,
		10: ScoreWeak,
		5:  ScoreTrivial,
		2:  ScoreReject,
	} {
		header := mintHeader(t, bits, testNow, testResource)
		assert.Equalf(t, expected, s.Score(ctx, header, testResource), "bits %d", bits)
	}
}

func TestScoreMalformed(t *testing.T) {
	s := newTestScorer(new(database.MockHashcashDao))
	ctx := context.Background()

	assert.Equal(t, ScoreReject, s.Score(ctx, "", testResource))
	assert.Equal(t, ScoreReject, s.Score(ctx, "garbage", testResource))
}

func TestScoreResourceMismatch(t *testing.T) {
	s := newTestScorer(new(database.MockHashcashDao))

	header := mintHeader(t, 5, testNow, testResource)
	score := s.Score(context.Background(), header, "other#example.com")

	assert.Equal(t, ScoreReject, score)
}

func TestScoreFutureDate(t *testing.T) {
	hashcashDao := new(database.MockHashcashDao)
	hashcashDao.On("ExistsUsed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	s := newTestScorer(hashcashDao)
	ctx := context.Background()

	// Within the skew allowance.
	header := mintHeader(t, 18, testNow.Add(time.Minute), testResource)
	assert.Equal(t, ScoreGood, s.Score(ctx, header, testResource))

	// Beyond the skew allowance.
	header = mintHeader(t, 18, testNow.Add(3*time.Minute), testResource)
	assert.Equal(t, ScoreReject, s.Score(ctx, header, testResource))
}

func TestScoreStale(t *testing.T) {
	s := newTestScorer(new(database.MockHashcashDao))

	header := mintHeader(t, 18, testNow.Add(-2*time.Hour), testResource)
	score := s.Score(context.Background(), header, testResource)

	assert.Equal(t, ScoreReject, score)
}

func TestScoreReplay(t *testing.T) {
	header := mintHeader(t, 18, testNow, testResource)

	hashcashDao := new(database.MockHashcashDao)
	hashcashDao.On("ExistsUsed", mock.Anything, mock.Anything, header).Return(true, nil)

	s := newTestScorer(hashcashDao)
	score := s.Score(context.Background(), header, testResource)

	assert.Equal(t, ScoreReject, score)
}

func TestScoreUnderachievedBits(t *testing.T) {
	hashcashDao := new(database.MockHashcashDao)
	hashcashDao.On("ExistsUsed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	s := newTestScorer(hashcashDao)

	header := mintInvalidHeader(t, 18, testNow, testResource)
	score := s.Score(context.Background(), header, testResource)

	assert.Equal(t, ScoreReject, score)
}

func TestMarkUsed(t *testing.T) {
	date := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	header := fmt.Sprintf("1:5:%s:%s::rand:1", date.Format(dateLayout), testResource)

	hashcashDao := new(database.MockHashcashDao)
	hashcashDao.On("InsertUsed", mock.Anything, mock.Anything, &models.UsedTokenEntity{
		Token:     header,
		ExpiresAt: date.Add(24 * time.Hour).Unix(),
	}).Return(nil)

	s := newTestScorer(hashcashDao)
	require.NoError(t, s.MarkUsed(context.Background(), nil, header))

	hashcashDao.AssertExpectations(t)
}

func TestMarkUsedMalformed(t *testing.T) {
	s := newTestScorer(new(database.MockHashcashDao))
	assert.ErrorIs(t, s.MarkUsed(context.Background(), nil, "garbage"), ErrMalformedToken)
}

// TestConcurrentTokenUse races identical tokens against the real sqlite
// replay ledger. Losing inserts are silent no-ops, the ledger ends up with a
// single row and every check after marking rejects the token.
func TestConcurrentTokenUse(t *testing.T) {
	viper.Set("storage.database.filename", filepath.Join(t.TempDir(), "ledger.db"))
	viper.Set("storage.database.journalmode", "memory")

	conn, err := database.OpenConnection()
	require.NoError(t, err)
	defer conn.Close()

	hashcashDao := database.NewHashcashDao()

	s := NewScorer(conn, hashcashDao).(*scorer)
	s.clock = func() time.Time { return testNow }

	header := mintHeader(t, 18, testNow, testResource)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		markErrs = make([]error, 4)
		scores   = make([]Score, 4)
	)

	for i := range markErrs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			markErrs[i] = s.MarkUsed(ctx, conn, header)
			scores[i] = s.Score(ctx, header, testResource)
		}(i)
	}

	wg.Wait()

	for i := range markErrs {
		assert.NoErrorf(t, markErrs[i], "mark %d", i)
		assert.Equalf(t, ScoreReject, scores[i], "score %d", i)
	}

	used, err := hashcashDao.ExistsUsed(ctx, conn, header)
	require.NoError(t, err)
	assert.True(t, used)

	// Exactly one row may exist for the token, no matter how many marks won.
	deleted, err := hashcashDao.DeleteExpired(ctx, conn, testNow.Add(48*time.Hour).Unix())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestScoreMonotonicity(t *testing.T) {
	hashcashDao := new(database.MockHashcashDao)
	hashcashDao.On("ExistsUsed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	s := newTestScorer(hashcashDao)
	ctx := context.Background()

	previous := ScoreReject

	for _, bits := range []int{4, 5, 10, 18} {
		header := mintHeader(t, bits, testNow, testResource)
		score := s.Score(ctx, header, testResource)

		assert.LessOrEqualf(t, score, previous, "bits %d", bits)
		previous = score
	}
}
