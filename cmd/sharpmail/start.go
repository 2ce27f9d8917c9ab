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

package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/sharpmail/internal/delivery"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/sharp"
	"github.com/lukasdietrich/sharpmail/internal/textproto"
)

func init() {
	viper.SetDefault("sharp.address", ":5000")
	viper.SetDefault("http.address", ":5001")
}

type startCommand struct {
	proto     *sharp.Proto
	router    *gin.Engine
	scheduler *delivery.Scheduler
	cleaner   *delivery.Cleaner
}

func (s *startCommand) run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.scheduler.Run(ctx)
	go s.cleaner.Run(ctx)

	errc := make(chan error, 1)

	go func() {
		addr := viper.GetString("sharp.address")
		log.Info().Str("address", addr).Msg("starting sharp listener")

		errc <- textproto.NewServer(s.proto).Listen(addr)
	}()

	go func() {
		addr := viper.GetString("http.address")
		log.Info().Str("address", addr).Msg("starting http listener")

		errc <- s.router.Run(addr)
	}()

	return <-errc
}
