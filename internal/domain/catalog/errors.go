package catalog

import "errors"

// Sentinel errors for the catalog.
var (
	ErrSeedFile = errors.New("catalog: cannot read seed file")
)
