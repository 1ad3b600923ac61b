// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "errors"

var (
	ErrTooManyItems       = errors.New("too many items")
	ErrFieldNotPopulated  = errors.New("field is not populated")
	ErrInvalidOrdering    = errors.New("invalid ordering")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrExtraBytes         = errors.New("extra bytes")
)
