package httpapi

import (
	"github.com/google/wire"
)

// WireSet is the provider set for the httpapi package.
var WireSet = wire.NewSet(
	NewAuthenticator,
	NewRouter,
)
