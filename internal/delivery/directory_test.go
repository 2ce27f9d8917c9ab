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
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestDirectoryTestSuite(t *testing.T) {
	suite.Run(t, new(DirectoryTestSuite))
}

type DirectoryTestSuite struct {
	baseDeliveryTestSuite
}

func (s *DirectoryTestSuite) TestFindUser() {
	expected := s.insertUser("someone", 100)

	user, err := s.directory.FindUser(context.TODO(), "someone", "example.com")
	s.Require().NoError(err)
	s.Equal(expected, user)
}

func (s *DirectoryTestSuite) TestFindUserUnknown() {
	user, err := s.directory.FindUser(context.TODO(), "nobody", "example.com")
	s.Require().NoError(err)
	s.Nil(user)
}

func (s *DirectoryTestSuite) TestFindUserWrongDomain() {
	s.insertUser("someone", 100)

	user, err := s.directory.FindUser(context.TODO(), "someone", "other.org")
	s.Require().NoError(err)
	s.Nil(user)
}
