package bnfg

import "github.com/scigolib/bnfg/internal/wire"

// Error kinds shared across the binary reader, binary writer, and
// dynamic tree (spec.md §7), re-exported so callers never need to
// import internal/wire to use errors.Is against them.
var (
	ErrBadMagic              = wire.ErrBadMagic
	ErrUnexpectedEndOfBuffer = wire.ErrUnexpectedEndOfBuffer
	ErrLengthMismatch        = wire.ErrLengthMismatch
	ErrUnknownType           = wire.ErrUnknownType
	ErrKeyOutOfBounds        = wire.ErrKeyOutOfBounds
	ErrValueOutOfBounds      = wire.ErrValueOutOfBounds
	ErrNonUTF8String         = wire.ErrNonUTF8String
	ErrEmptyKey              = wire.ErrEmptyKey
	ErrKeysNotSorted         = wire.ErrKeysNotSorted
	ErrMixedArray            = wire.ErrMixedArray
	ErrKeyNotFound           = wire.ErrKeyNotFound
	ErrIndexOutOfBounds      = wire.ErrIndexOutOfBounds
	ErrIncorrectValueType    = wire.ErrIncorrectValueType
	ErrTypeMismatch          = wire.ErrTypeMismatch

	ErrEmptyRootTable = wire.ErrEmptyRootTable
	ErrKeyExpected    = wire.ErrKeyExpected
	ErrKeyNotExpected = wire.ErrKeyNotExpected
	ErrTooFewEntries  = wire.ErrTooFewEntries
	ErrTooManyEntries = wire.ErrTooManyEntries
	ErrNotFinished    = wire.ErrNotFinished
	ErrOverflow       = wire.ErrOverflow

	ErrSyntax                    = wire.ErrSyntax
	ErrDuplicateKey               = wire.ErrDuplicateKey
	ErrDuplicateSection           = wire.ErrDuplicateSection
	ErrSectionKeyCollision        = wire.ErrSectionKeyCollision
	ErrNestedSectionDepthExceeded = wire.ErrNestedSectionDepthExceeded
)
