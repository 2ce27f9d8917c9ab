package storage

import (
	"github.com/google/wire"
)

// WireSet is the provider set for the storage package.
var WireSet = wire.NewSet(
	NewBlobs,
)
