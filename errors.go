// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import "errors"

// ErrorCode classifies a diagnostic record emitted by the allocator.
type ErrorCode int

const (
	// ErrorNone is the zero value; never emitted in a Record.
	ErrorNone ErrorCode = iota
	// ErrorInitFailed marks a failure during Init.
	ErrorInitFailed
	// ErrorAllocFailed marks a recoverable allocation failure.
	ErrorAllocFailed
	// ErrorInvalidFree marks a pointer not owned by any pool or slab.
	ErrorInvalidFree
	// ErrorInvalidPool marks an operation against an unknown or destroyed pool.
	ErrorInvalidPool
	// ErrorPoolFull marks a CreatePool call with no free slot.
	ErrorPoolFull
	// ErrorCorruption marks a fatal internal-invariant violation.
	ErrorCorruption
	// ErrorInvalidArgument marks a missing or malformed Config.
	ErrorInvalidArgument
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorInitFailed:
		return "InitFailed"
	case ErrorAllocFailed:
		return "AllocFailed"
	case ErrorInvalidFree:
		return "InvalidFree"
	case ErrorInvalidPool:
		return "InvalidPool"
	case ErrorPoolFull:
		return "PoolFull"
	case ErrorCorruption:
		return "Corruption"
	case ErrorInvalidArgument:
		return "InvalidArgument"
	default:
		return "None"
	}
}

// Recoverable sentinel errors returned to callers. Fatal corruption never
// reaches a caller as a returned error: it is logged and the process is
// terminated, see Pool.fatal in arena.go.
var (
	ErrInitFailed       = errors.New("memarena: init failed")
	ErrAllocFailed      = errors.New("memarena: allocation failed")
	ErrInvalidFree      = errors.New("memarena: invalid free")
	ErrInvalidPool      = errors.New("memarena: invalid pool")
	ErrPoolFull         = errors.New("memarena: pool slots exhausted")
	ErrInvalidArgument  = errors.New("memarena: invalid argument")
)
