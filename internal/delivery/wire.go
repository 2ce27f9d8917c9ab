package delivery

import (
	"github.com/google/wire"
)

// WireSet is the provider set for the delivery package.
var WireSet = wire.NewSet(
	NewDirectory,
	NewMailman,
	NewPostmaster,
	NewScheduler,
	NewCleaner,
)
