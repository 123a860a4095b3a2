package gerror

import "errors"

var (
	// ErrStorageNotFound is used when the object is not found in the storage
	ErrStorageNotFound = errors.New("Not found in the Storage")

	// ErrStorageNotRegister is used when the selected storage backend is
	// not registered
	ErrStorageNotRegister = errors.New("Storage not registered")

	// ErrDecode is used when a buffer does not hold the bytes its wire format
	// promises at a defined offset
	ErrDecode = errors.New("malformed payload")

	// ErrUnknownToken is used when a token cannot be resolved on its chain
	ErrUnknownToken = errors.New("unknown token")

	// ErrUnknownChainDomain is used when a circle domain has no chain mapping,
	// or the other way around
	ErrUnknownChainDomain = errors.New("unknown chain or circle domain")

	// ErrInvalidAddressPadding is used when a 32-byte address for an evm chain
	// carries non-zero bytes in its 12-byte pad
	ErrInvalidAddressPadding = errors.New("invalid address pad for evm chain")

	// ErrOrderHashMismatch is used when a recomputed order hash does not match
	// the one carried on the wire
	ErrOrderHashMismatch = errors.New("order hash mismatch")

	// ErrPreimageLength is used when a serialized order preimage does not land
	// on its expected length
	ErrPreimageLength = errors.New("order preimage length mismatch")

	// ErrDataUnavailable is used when a remote lookup (transaction, account,
	// signed message) has no answer yet
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrFollowerTimeout is used when a follower exhausts its retry budget
	// waiting on a single step
	ErrFollowerTimeout = errors.New("tired of waiting")
)
