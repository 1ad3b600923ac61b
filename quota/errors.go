// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quota

import "errors"

var (
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrAlreadyWhitelisted = errors.New("address already whitelisted")
	ErrNotWhitelisted     = errors.New("address not whitelisted")
	ErrInvalidAddress     = errors.New("invalid address")
)
