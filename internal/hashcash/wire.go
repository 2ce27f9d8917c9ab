package hashcash

import (
	"github.com/google/wire"
)

// WireSet is the provider set for the hashcash package.
var WireSet = wire.NewSet(
	NewScorer,
)
