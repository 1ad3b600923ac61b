// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package approval

import "errors"

var (
	ErrMismatchedLengths     = errors.New("signers and signatures length mismatch")
	ErrApprovalExpired       = errors.New("approval expired")
	ErrNotGuardian           = errors.New("signer is not an active guardian")
	ErrInvalidSignature      = errors.New("invalid guardian signature")
	ErrInvalidOwnerSignature = errors.New("invalid owner signature")
	ErrQuorumNotMet          = errors.New("quorum not met")
	ErrHashExists            = errors.New("approval hash exists")
	ErrDuplicateSigner       = errors.New("duplicate signer")
	ErrSignedByOwner         = errors.New("guardian signature produced by owner")
)
