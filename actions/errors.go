// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import "errors"

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrPathNotAllowed    = errors.New("action not allowed on this path")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrInvalidToken      = errors.New("invalid token")
	ErrDataTooLarge      = errors.New("data too large")
	ErrOutputValueZero   = errors.New("value is zero")
	ErrInvalidMasterCopy = errors.New("invalid master copy")
)
