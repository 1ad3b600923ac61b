// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrInvalidBalance = errors.New("invalid balance")
	ErrInvalidRecord  = errors.New("invalid record")
)
