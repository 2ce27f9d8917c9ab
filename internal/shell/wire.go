package shell

import (
	"github.com/google/wire"
)

// WireSet is the provider set for the shell package.
var WireSet = wire.NewSet(
	NewShell,
)
