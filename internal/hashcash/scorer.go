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
	"time"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

// Score is the categorical outcome of a token check. Lower is better.
type Score int

const (
	// ScoreGood is a token with at least 18 bits.
	ScoreGood Score = 0
	// ScoreWeak is a token with at least 10 bits.
	ScoreWeak Score = 1
	// ScoreTrivial is a token with at least 5 bits.
	ScoreTrivial Score = 2
	// ScoreReject is a missing, malformed, stale, replayed or insufficient
	// token.
	ScoreReject Score = 3
)

// Bit thresholds of the score tiers. They are advertised in the server
// health endpoint so that senders know what to mint.
const (
	// RecommendedBits is the threshold for a token that incurs no penalty.
	RecommendedBits = 18
	// MinimumBits is the lowest threshold a token may declare before it is
	// rejected outright.
	MinimumBits = 5

	bitsGood    = RecommendedBits
	bitsWeak    = 10
	bitsTrivial = MinimumBits
)

const (
	// futureSkew is the allowance for clocks running ahead.
	futureSkew = 2 * time.Minute
	// maxAge is the staleness limit of a token.
	maxAge = time.Hour
	// usedTokenTTL is how long a used token stays in the replay ledger,
	// relative to its embedded date.
	usedTokenTTL = 24 * time.Hour
)

// IsReject reports whether a score is too bad to accept a message.
func (s Score) IsReject() bool {
	return s >= ScoreReject
}

// Scorer checks proof of work headers against a protected resource and keeps
// the replay ledger.
type Scorer interface {
	// Score rates a header bound to a resource. It never fails, any error
	// during validation collapses to ScoreReject.
	Score(ctx context.Context, header, resource string) Score
	// MarkUsed records a header in the replay ledger. Marking the same
	// header twice is a no-op.
	MarkUsed(ctx context.Context, q database.Queryer, header string) error
}

type scorer struct {
	conn        database.Conn
	hashcashDao database.HashcashDao
	clock       func() time.Time
}

// NewScorer creates a Scorer backed by the database replay ledger.
func NewScorer(conn database.Conn, hashcashDao database.HashcashDao) Scorer {
	return &scorer{
		conn:        conn,
		hashcashDao: hashcashDao,
		clock:       time.Now,
	}
}

func (s *scorer) Score(ctx context.Context, header, resource string) Score {
	if header == "" {
		return ScoreReject
	}

	token, err := ParseToken(header)
	if err != nil {
		return ScoreReject
	}

	if token.Resource != resource {
		return ScoreReject
	}

	now := s.clock()

	if token.Date.After(now.Add(futureSkew)) {
		return ScoreReject
	}

	if now.Sub(token.Date) > maxAge {
		return ScoreReject
	}

	used, err := s.hashcashDao.ExistsUsed(ctx, s.conn, header)
	if err != nil {
		log.WarnContext(ctx).
			Err(err).
			Msg("could not check replay ledger, rejecting token")

		return ScoreReject
	}

	if used {
		return ScoreReject
	}

	if !token.CheckProofOfWork() {
		return ScoreReject
	}

	switch {
	case token.Bits >= bitsGood:
		return ScoreGood
	case token.Bits >= bitsWeak:
		return ScoreWeak
	case token.Bits >= bitsTrivial:
		return ScoreTrivial
	default:
		return ScoreReject
	}
}

func (s *scorer) MarkUsed(ctx context.Context, q database.Queryer, header string) error {
	token, err := ParseToken(header)
	if err != nil {
		return err
	}

	return s.hashcashDao.InsertUsed(ctx, q, &models.UsedTokenEntity{
		Token:     header,
		ExpiresAt: token.Date.Add(usedTokenTTL).Unix(),
	})
}
