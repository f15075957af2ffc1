package lookuptable

import "cosmossdk.io/errors"

// ModuleName is the codespace for all errors defined in this package
const ModuleName = "lookuptable"

// NOTE: We can't use 1 since that error code is reserved for internal errors.

var (
	ErrInvalidArgument   = errors.Register(ModuleName, 2, "invalid argument")
	ErrNetworkRejected   = errors.Register(ModuleName, 3, "submission rejected by network")
	ErrTimeout           = errors.Register(ModuleName, 4, "wait timed out")
	ErrTableUnavailable  = errors.Register(ModuleName, 5, "lookup table unavailable")
	ErrUnresolvedAddress = errors.Register(ModuleName, 6, "address not resolvable at compile time")
	ErrTooLarge          = errors.Register(ModuleName, 7, "serialized transaction exceeds packet size limit")
)
