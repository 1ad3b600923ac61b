// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package guardian

import "errors"

var (
	ErrInvalidGuardian       = errors.New("invalid guardian")
	ErrGuardianCanNotBeOwner = errors.New("guardian can not be owner")
	ErrGuardianExists        = errors.New("guardian exists")
	ErrGuardianNotFound      = errors.New("guardian not found")
	ErrRemovalPending        = errors.New("guardian removal pending")
	ErrTooManyGuardians      = errors.New("too many guardians")
)
