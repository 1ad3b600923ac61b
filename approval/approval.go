// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package approval

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/storage"
)

// Approval is a bundle of guardian signatures authorizing one operation
// outside of the sequential nonce. Signers must be strictly ascending and
// aligned with Signatures.
type Approval struct {
	Signers    []common.Address `json:"signers"`
	Signatures []hexutil.Bytes  `json:"signatures"`
	// ValidUntil is a unix timestamp; zero never expires.
	ValidUntil int64       `json:"validUntil"`
	Salt       common.Hash `json:"salt"`
}

// Validate performs the structural checks that need no state.
func (a *Approval) Validate() error {
	if len(a.Signers) != len(a.Signatures) {
		return fmt.Errorf("%w: signers=%d signatures=%d", ErrMismatchedLengths, len(a.Signers), len(a.Signatures))
	}
	return codec.VerifyAscending(a.Signers)
}

func (a *Approval) Expired(now int64) bool {
	return a.ValidUntil != 0 && now > a.ValidUntil
}

// NewSalt returns a random salt so otherwise identical approvals hash to
// different digests.
func NewSalt() (common.Hash, error) {
	var h common.Hash
	_, err := rand.Read(h[:])
	return h, err
}

// Verify checks that [a] carries valid signatures over [hash] from at least
// a quorum of the active guardians in [guardians] and, when
// [requireOwner], a valid signature from [owner]. Any signer that is not
// an active guardian, or whose signature was produced by the owner's key,
// rejects the whole bundle.
func Verify(
	ctx context.Context,
	view auth.AccountView,
	hash common.Hash,
	a *Approval,
	guardians *guardian.Set,
	owner common.Address,
	ownerSig []byte,
	requireOwner bool,
) error {
	if err := a.Validate(); err != nil {
		return err
	}
	for i, signer := range a.Signers {
		if !guardians.IsGuardian(signer, false) {
			return fmt.Errorf("%w: %s", ErrNotGuardian, signer)
		}
		if err := auth.VerifySignature(ctx, view, signer, hash, a.Signatures[i]); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSignature, signer, err)
		}
		// A guardian account managed by the owner key is the owner.
		key, err := auth.Recover(hash, a.Signatures[i])
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSignature, signer, err)
		}
		if key == owner {
			return fmt.Errorf("%w: %s", ErrSignedByOwner, signer)
		}
	}
	if threshold := guardians.Quorum(); len(a.Signers) < threshold {
		return fmt.Errorf("%w: have %d, need %d", ErrQuorumNotMet, len(a.Signers), threshold)
	}
	if !requireOwner {
		return nil
	}
	if err := auth.VerifySignature(ctx, view, owner, hash, ownerSig); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOwnerSignature, err)
	}
	return nil
}

// ConsumeOnce records [digest] for [wallet] or fails with [ErrHashExists].
func ConsumeOnce(
	ctx context.Context,
	mu state.Mutable,
	wallet common.Address,
	digest common.Hash,
	now int64,
) error {
	used, err := storage.IsApprovalHashUsed(ctx, mu, wallet, digest)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: %s", ErrHashExists, digest)
	}
	return storage.SetApprovalHashUsed(ctx, mu, wallet, digest, now)
}

func IsConsumed(
	ctx context.Context,
	im state.Immutable,
	wallet common.Address,
	digest common.Hash,
) (bool, error) {
	return storage.IsApprovalHashUsed(ctx, im, wallet, digest)
}
