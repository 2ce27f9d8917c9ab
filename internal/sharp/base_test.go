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

package sharp

import (
	"context"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/dns"
	"github.com/lukasdietrich/sharpmail/internal/hashcash"
)

// fakeDiscovery answers discovery queries from fixed data.
type fakeDiscovery struct {
	peer      *dns.Peer
	peerErr   error
	verifyErr error
}

var _ dns.Discovery = (*fakeDiscovery)(nil)

func (f *fakeDiscovery) ResolveTargets(_ context.Context, _ string) ([]dns.Target, error) {
	return nil, f.peerErr
}

func (f *fakeDiscovery) ResolvePeer(_ context.Context, _ string) (*dns.Peer, error) {
	return f.peer, f.peerErr
}

func (f *fakeDiscovery) VerifySenderDomain(_ context.Context, _, _ string) error {
	return f.verifyErr
}

// fakeScorer returns a fixed score and records marked tokens.
type fakeScorer struct {
	score  hashcash.Score
	marked []string
}

var _ hashcash.Scorer = (*fakeScorer)(nil)

func (f *fakeScorer) Score(_ context.Context, _, _ string) hashcash.Score {
	return f.score
}

func (f *fakeScorer) MarkUsed(_ context.Context, _ database.Queryer, header string) error {
	f.marked = append(f.marked, header)
	return nil
}
