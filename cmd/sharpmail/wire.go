// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/delivery"
	"github.com/lukasdietrich/sharpmail/internal/dns"
	"github.com/lukasdietrich/sharpmail/internal/hashcash"
	"github.com/lukasdietrich/sharpmail/internal/httpapi"
	"github.com/lukasdietrich/sharpmail/internal/sharp"
	"github.com/lukasdietrich/sharpmail/internal/shell"
	"github.com/lukasdietrich/sharpmail/internal/storage"
)

var wireSet = wire.NewSet(
	wire.Struct(new(startCommand), "*"),
	wire.Struct(new(shellCommand), "*"),

	database.WireSet,
	storage.WireSet,
	dns.WireSet,
	hashcash.WireSet,
	delivery.WireSet,
	sharp.WireSet,
	httpapi.WireSet,
	shell.WireSet,
)

func newStartCommand() (*startCommand, error) {
	panic(wire.Build(wireSet))
}

func newShellCommand() (*shellCommand, error) {
	panic(wire.Build(wireSet))
}
