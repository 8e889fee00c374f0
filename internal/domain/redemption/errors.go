package redemption

import "errors"

// Sentinel kinds for redemption errors.
var (
	ErrEntropy = errors.New("redemption code entropy source failed")
)
