// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package security implements the lock, recovery and inheritance
// transitions of a wallet. Every function mutates the [storage.Account]
// and [guardian.Set] it is handed; persisting them is the caller's job so
// a failed operation can be discarded as a whole.
package security

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/consts"
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/storage"
)

type Policy struct {
	MinInheritWaiting int64 `json:"minInheritWaiting" yaml:"minInheritWaiting"`
	MaxInheritWaiting int64 `json:"maxInheritWaiting" yaml:"maxInheritWaiting"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinInheritWaiting: consts.MinInheritWaiting,
		MaxInheritWaiting: consts.MaxInheritWaiting,
	}
}

// Lock may be called by the owner or any active guardian. Locking a locked
// wallet is a no-op; the result reports whether anything changed. A lock by
// the owner counts as owner activity.
func Lock(acct *storage.Account, guardians *guardian.Set, caller common.Address, now int64) (bool, error) {
	isOwner := caller == acct.Owner
	if !isOwner && !guardians.IsGuardian(caller, false) {
		return false, fmt.Errorf("%w: %s may not lock", ErrUnauthorized, caller)
	}
	if isOwner {
		Touch(acct, now)
	}
	if acct.Locked {
		return false, nil
	}
	acct.Locked = true
	return true, nil
}

// Unlock reports whether the wallet was locked.
func Unlock(acct *storage.Account) bool {
	was := acct.Locked
	acct.Locked = false
	return was
}

// Recover hands the wallet to [newOwner] without changing the lock. A
// non-empty [newGuardians] replaces the guardian set immediately;
// otherwise [newOwner] is dropped from the set if it was a guardian.
// Recover returns the guardians that left the set.
func Recover(
	acct *storage.Account,
	guardians *guardian.Set,
	newOwner common.Address,
	newGuardians []common.Address,
) ([]common.Address, error) {
	if newOwner == codec.EmptyAddress {
		return nil, ErrInvalidOwner
	}
	if newOwner == acct.Owner {
		return nil, fmt.Errorf("%w: %s", ErrIsSameOwner, newOwner)
	}
	var removed []common.Address
	if len(newGuardians) > 0 {
		prior := guardians.Guardians(true)
		if _, err := guardians.Replace(newOwner, newGuardians); err != nil {
			return nil, err
		}
		kept := set.Of(newGuardians...)
		for _, g := range prior {
			if !kept.Contains(g.Addr) {
				removed = append(removed, g.Addr)
			}
		}
	} else if guardians.Drop(newOwner) {
		removed = append(removed, newOwner)
	}
	acct.Owner = newOwner
	return removed, nil
}

// SetInheritor configures who may take over the wallet after [waiting]
// seconds of owner inactivity. A zero inheritor with zero waiting clears
// the configuration.
func SetInheritor(
	policy Policy,
	acct *storage.Account,
	wallet common.Address,
	inheritor common.Address,
	waiting int64,
) error {
	if inheritor == codec.EmptyAddress {
		if waiting != 0 {
			return fmt.Errorf("%w: %d without inheritor", ErrInvalidWaitingPeriod, waiting)
		}
		acct.Inheritor = codec.EmptyAddress
		acct.InheritWaitingPeriod = 0
		return nil
	}
	if inheritor == acct.Owner || inheritor == wallet {
		return fmt.Errorf("%w: %s", ErrInvalidInheritor, inheritor)
	}
	if waiting < policy.MinInheritWaiting || waiting > policy.MaxInheritWaiting {
		return fmt.Errorf(
			"%w: %d not in [%d, %d]",
			ErrInvalidWaitingPeriod,
			waiting,
			policy.MinInheritWaiting,
			policy.MaxInheritWaiting,
		)
	}
	acct.Inheritor = inheritor
	acct.InheritWaitingPeriod = waiting
	return nil
}

// InheritableAt is the earliest time the inheritor may take over, or zero
// if no inheritor is configured.
func InheritableAt(acct *storage.Account) int64 {
	if acct.Inheritor == codec.EmptyAddress {
		return 0
	}
	return acct.LastActive + acct.InheritWaitingPeriod
}

// Inherit transfers ownership to [newOwner] on behalf of the configured
// inheritor once the owner has been inactive long enough. The lock is left
// as is.
func Inherit(
	acct *storage.Account,
	guardians *guardian.Set,
	caller common.Address,
	newOwner common.Address,
	clearGuardians bool,
	now int64,
) error {
	if acct.Inheritor == codec.EmptyAddress || caller != acct.Inheritor {
		return fmt.Errorf("%w: %s is not the inheritor", ErrUnauthorized, caller)
	}
	if at := InheritableAt(acct); now < at {
		return fmt.Errorf("%w: inheritable at %d, now %d", ErrTooEarly, at, now)
	}
	if newOwner == codec.EmptyAddress {
		return ErrInvalidOwner
	}
	if newOwner == acct.Owner {
		return fmt.Errorf("%w: %s", ErrIsSameOwner, newOwner)
	}
	if clearGuardians {
		guardians.Clear()
	} else if guardians.IsGuardian(newOwner, true) {
		return fmt.Errorf("%w: %s", guardian.ErrGuardianCanNotBeOwner, newOwner)
	}
	acct.Owner = newOwner
	acct.Inheritor = codec.EmptyAddress
	acct.InheritWaitingPeriod = 0
	acct.LastActive = now
	return nil
}

// Touch records owner activity.
func Touch(acct *storage.Account, now int64) {
	acct.LastActive = now
}
