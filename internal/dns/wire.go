package dns

import (
	"github.com/google/wire"
)

// WireSet is the provider set for the dns package.
var WireSet = wire.NewSet(
	NewResolver,
	NewDiscovery,
)
