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

package shell

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/sharpmail/internal/crypto"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

var errNoUsers = errors.New("there are no users configured")

func infoUser(ctx *cmdContext) error {
	user, err := selectOneUser(ctx)
	if err != nil {
		return err
	}

	ctx.info("ID:       %d", user.ID)
	ctx.info("Address:  %s#%s", user.Username, user.Domain)
	ctx.info("IQ:       %d", user.IQ)

	return nil
}

func addUser(ctx *cmdContext) error {
	username, err := ctx.ask("Username: ")
	if err != nil {
		return err
	}

	if !models.IsValidUsername(username) {
		return fmt.Errorf("invalid username %q", username)
	}

	domain, err := ctx.askWithDefault("Domain: ", viper.GetString("general.domain"))
	if err != nil {
		return err
	}

	domain, err = models.DomainToASCII(domain)
	if err != nil {
		return fmt.Errorf("could not normalize domain %q: %w", domain, err)
	}

	iq, err := askIQ(ctx)
	if err != nil {
		return err
	}

	user := models.UserEntity{
		Username: username,
		Domain:   domain,
		IQ:       iq,
	}

	password, err := ctx.password("Password: ")
	if err != nil {
		return err
	}

	if err := crypto.Hash(&user, password); err != nil {
		return err
	}

	if err := ctx.userDao.Insert(ctx, ctx.tx, &user); err != nil {
		return fmt.Errorf("could not store new user %q: %w", username, err)
	}

	ctx.info("User \"%s#%s\" added with id=%d.", user.Username, user.Domain, user.ID)
	return nil
}

func passwdUser(ctx *cmdContext) error {
	user, err := selectOneUser(ctx)
	if err != nil {
		return err
	}

	newPassword, err := ctx.password("New password: ")
	if err != nil {
		return err
	}

	if err := crypto.Hash(user, newPassword); err != nil {
		return err
	}

	if err := ctx.userDao.Update(ctx, ctx.tx, user); err != nil {
		return err
	}

	ctx.info("Password for user \"%s#%s\" changed.", user.Username, user.Domain)
	return nil
}

func iqUser(ctx *cmdContext) error {
	user, err := selectOneUser(ctx)
	if err != nil {
		return err
	}

	iq, err := askIQ(ctx)
	if err != nil {
		return err
	}

	user.IQ = iq

	if err := ctx.userDao.Update(ctx, ctx.tx, user); err != nil {
		return err
	}

	ctx.info("IQ for user \"%s#%s\" set to %d.", user.Username, user.Domain, user.IQ)
	return nil
}

func issueToken(ctx *cmdContext) error {
	user, err := selectOneUser(ctx)
	if err != nil {
		return err
	}

	validity, err := askValidityDays(ctx)
	if err != nil {
		return err
	}

	random, err := uuid.NewRandom()
	if err != nil {
		return err
	}

	token := models.AuthTokenEntity{
		Token:     random.String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().AddDate(0, 0, validity).Unix(),
	}

	if err := ctx.authTokenDao.Insert(ctx, ctx.tx, &token); err != nil {
		return fmt.Errorf("could not store new token: %w", err)
	}

	ctx.info("Token for user \"%s#%s\" issued.", user.Username, user.Domain)
	ctx.info("")
	ctx.info("  %s", token.Token)
	ctx.info("")
	ctx.info("It expires in %d day(s).", validity)

	return nil
}

func purgeTokens(ctx *cmdContext) error {
	count, err := ctx.authTokenDao.DeleteExpired(ctx, ctx.tx, time.Now().Unix())
	if err != nil {
		return err
	}

	ctx.info("Deleted %d expired token(s).", count)
	return nil
}

func askIQ(ctx *cmdContext) (int, error) {
	answer, err := ctx.askWithDefault("IQ: ", "100")
	if err != nil {
		return 0, err
	}

	iq, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("invalid iq %q: %w", answer, err)
	}

	return iq, nil
}

func askValidityDays(ctx *cmdContext) (int, error) {
	answer, err := ctx.askWithDefault("Validity in days: ", "30")
	if err != nil {
		return 0, err
	}

	days, err := strconv.Atoi(answer)
	if err != nil || days < 1 {
		return 0, fmt.Errorf("invalid number of days %q", answer)
	}

	return days, nil
}

func selectOneUser(ctx *cmdContext) (*models.UserEntity, error) {
	userSlice, err := ctx.userDao.FindAll(ctx, ctx.tx)
	if err != nil {
		return nil, err
	}

	if len(userSlice) == 0 {
		return nil, errNoUsers
	}

	index, err := fuzzyfinder.Find(userSlice, mapUserSearch(userSlice))
	if err != nil {
		return nil, err
	}

	return &userSlice[index], nil
}

func mapUserSearch(userSlice []models.UserEntity) func(int) string {
	return func(i int) string {
		user := userSlice[i]
		return fmt.Sprintf("%s#%s", user.Username, user.Domain)
	}
}
