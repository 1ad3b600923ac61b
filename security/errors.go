// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package security

import "errors"

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTooEarly             = errors.New("too early")
	ErrIsSameOwner          = errors.New("is same owner")
	ErrInvalidOwner         = errors.New("invalid owner")
	ErrInvalidInheritor     = errors.New("invalid inheritor")
	ErrInvalidWaitingPeriod = errors.New("invalid waiting period")
)
