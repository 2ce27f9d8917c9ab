package database

import (
	"github.com/google/wire"
)

// WireSet is the provider set for the database package.
var WireSet = wire.NewSet(
	OpenConnection,
	NewMailDao,
	NewUserDao,
	NewHashcashDao,
	NewAttachmentDao,
	NewAuthTokenDao,
)
