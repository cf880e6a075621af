package corgex

import (
	"github.com/coregx/corgex/program"
	"github.com/coregx/corgex/syntax"
	"github.com/coregx/corgex/vm"
)

// The error taxonomy, re-exported from the packages that raise the errors
// so callers can match them with errors.Is without importing internals.
var (
	// Compile-time errors.
	ErrBadRange           = syntax.ErrBadRange
	ErrBogusEscape        = syntax.ErrBogusEscape
	ErrMissingParen       = syntax.ErrMissingParen
	ErrUnbalancedParen    = syntax.ErrUnbalancedParen
	ErrBadGroupName       = syntax.ErrBadGroupName
	ErrBadExtension       = syntax.ErrBadExtension
	ErrTooManyGroups      = syntax.ErrTooManyGroups
	ErrBadRepeat          = syntax.ErrBadRepeat
	ErrInvalidGroupRef    = syntax.ErrInvalidGroupRef
	ErrInvalidNode        = program.ErrInvalidNode
	ErrVariableLookbehind = program.ErrVariableLookbehind

	// Run-time errors.
	ErrIllegalOpcode = vm.ErrIllegalOpcode
	ErrOutOfMemory   = vm.ErrOutOfMemory
)
