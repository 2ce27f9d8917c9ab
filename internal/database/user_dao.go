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

package database

import (
	"context"

	"github.com/lukasdietrich/sharpmail/internal/models"
)

// UserDao is a data access object for all user related queries.
type UserDao interface {
	// Insert inserts a new user and fills in the generated id.
	Insert(context.Context, Queryer, *models.UserEntity) error
	// Update updates an existing user.
	Update(context.Context, Queryer, *models.UserEntity) error
	// FindByName returns the user with the given username and domain.
	FindByName(ctx context.Context, q Queryer, username, domain string) (*models.UserEntity, error)
	// FindByID returns the user with the given id.
	FindByID(context.Context, Queryer, int64) (*models.UserEntity, error)
	// FindAll returns all users ordered by username.
	FindAll(context.Context, Queryer) ([]models.UserEntity, error)
}

// userDao is the sqlite implementation of UserDao.
type userDao struct{}

// NewUserDao creates a new UserDao.
func NewUserDao() UserDao {
	return userDao{}
}

func (userDao) Insert(ctx context.Context, q Queryer, user *models.UserEntity) error {
	const query = `
		insert into "users" (
			"username" ,
			"domain" ,
			"iq" ,
			"credential_hash"
		) values (
			:username ,
			:domain ,
			:iq ,
			:credential_hash
		) ;
	`

	result, err := execNamed(ctx, q, query, user)
	if err != nil {
		return err
	}

	user.ID, err = result.LastInsertId()
	return err
}

func (userDao) Update(ctx context.Context, q Queryer, user *models.UserEntity) error {
	const query = `
		update "users"
		set "username"        = :username ,
			"domain"          = :domain ,
			"iq"              = :iq ,
			"credential_hash" = :credential_hash
		where "id" = :id ;
	`

	result, err := execNamed(ctx, q, query, user)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (userDao) FindByName(
	ctx context.Context,
	q Queryer,
	username, domain string,
) (*models.UserEntity, error) {
	const query = `
		select *
		from "users"
		where "username" = $1
		  and "domain" = $2 ;
	`

	var user models.UserEntity

	if err := selectOne(ctx, q, &user, query, username, domain); err != nil {
		return nil, err
	}

	return &user, nil
}

func (userDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.UserEntity, error) {
	const query = `
		select *
		from "users"
		where "id" = $1 ;
	`

	var user models.UserEntity

	if err := selectOne(ctx, q, &user, query, id); err != nil {
		return nil, err
	}

	return &user, nil
}

func (userDao) FindAll(ctx context.Context, q Queryer) ([]models.UserEntity, error) {
	const query = `
		select *
		from "users"
		order by "username" asc ;
	`

	var userSlice []models.UserEntity

	if err := selectSlice(ctx, q, &userSlice, query); err != nil {
		return nil, err
	}

	return userSlice, nil
}
