// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import "errors"

var (
	ErrWalletExists      = errors.New("wallet already exists")
	ErrLocked            = errors.New("wallet is locked")
	ErrInvalidNonce      = errors.New("invalid nonce")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidOwner      = errors.New("invalid owner")
	ErrInvalidMasterCopy = errors.New("invalid master copy")
	ErrMissingAction     = errors.New("missing action")
	ErrExpired           = errors.New("authorization expired")
)
