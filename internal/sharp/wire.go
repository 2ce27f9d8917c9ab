package sharp

import (
	"github.com/google/wire"

	"github.com/lukasdietrich/sharpmail/internal/delivery"
)

// WireSet is the provider set for the sharp package.
var WireSet = wire.NewSet(
	NewProto,
	NewClient,
	wire.Bind(new(delivery.Courier), new(*Client)),
)
