// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import "errors"

var (
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrInvalidSignatureSize = errors.New("invalid signature size")
	ErrUnknownSignatureType = errors.New("unknown signature type")
	ErrNotManager           = errors.New("signer is not a manager of account")
	ErrNoSigner             = errors.New("no signer populated")
)
