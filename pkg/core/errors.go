package core

import "errors"

// Error taxonomy. Callers match with errors.Is; every error returned by the
// codec and the store wraps exactly one of these.
var (
	// ErrValidation reports an empty or otherwise invalid argument
	// (table name, record, patch, batch size, direction...).
	ErrValidation = errors.New("validation error")

	// ErrInvalidEncoding reports ciphertext that is not valid base64.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrDecryption reports a cipher, authentication or padding failure.
	// Usually the data was written with other keys or with encryption disabled.
	ErrDecryption = errors.New("decryption failed")

	// ErrSerialization reports a value that cannot be represented as JSON, or
	// malformed JSON on the way back.
	ErrSerialization = errors.New("serialization failed")

	// ErrIO reports a file that could not be read or written.
	ErrIO = errors.New("io error")

	// ErrInvalidStream reports a bulk stream without a complete IV header.
	ErrInvalidStream = errors.New("invalid stream")

	// ErrCorruptTable reports a table file that exists but cannot be decoded.
	ErrCorruptTable = errors.New("corrupt table")

	// ErrLockTimeout reports that a table lock could not be acquired in time.
	ErrLockTimeout = errors.New("table lock timeout")

	// ErrReadOnly is returned by mutating operations on a read-only store.
	ErrReadOnly = errors.New("store is in read-only mode")
)
