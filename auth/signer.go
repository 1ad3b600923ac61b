// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

//go:generate go run go.uber.org/mock/mockgen -package=authtest -destination=authtest/mock_account_view.go . AccountView

// AccountView is the read-only capability a verifier needs to resolve a
// signer that is itself an account. Implementations never mutate the
// queried account.
type AccountView interface {
	// IsAccount reports whether [addr] is an account whose signatures are
	// produced by its managers rather than by a key it holds.
	IsAccount(ctx context.Context, addr common.Address) (bool, error)
	// IsManager reports whether [candidate] may sign on behalf of [account].
	IsManager(ctx context.Context, account common.Address, candidate common.Address) (bool, error)
}

// DirectSigner is an identity backed by a single secp256k1 key.
type DirectSigner struct {
	Addr common.Address `json:"addr"`
}

func (d *DirectSigner) Verify(_ context.Context, _ AccountView, hash common.Hash, sig []byte) error {
	recovered, err := Recover(hash, sig)
	if err != nil {
		return err
	}
	if recovered != d.Addr {
		return fmt.Errorf("%w: recovered %s, expected %s", ErrInvalidSignature, recovered, d.Addr)
	}
	return nil
}

// DelegatedSigner is an account whose signature is valid when produced by
// one of its managers.
type DelegatedSigner struct {
	Account common.Address `json:"account"`
}

func (d *DelegatedSigner) Verify(ctx context.Context, view AccountView, hash common.Hash, sig []byte) error {
	recovered, err := Recover(hash, sig)
	if err != nil {
		return err
	}
	ok, err := view.IsManager(ctx, d.Account, recovered)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %w: %s is not a manager of %s", ErrInvalidSignature, ErrNotManager, recovered, d.Account)
	}
	return nil
}

// Signer holds exactly one populated variant.
type Signer struct {
	Direct    *DirectSigner    `json:"direct,omitempty"`
	Delegated *DelegatedSigner `json:"delegated,omitempty"`
}

// Resolve classifies [addr]. A nil [view] treats every signer as direct.
func Resolve(ctx context.Context, view AccountView, addr common.Address) (*Signer, error) {
	if view == nil {
		return &Signer{Direct: &DirectSigner{Addr: addr}}, nil
	}
	isAccount, err := view.IsAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	if isAccount {
		return &Signer{Delegated: &DelegatedSigner{Account: addr}}, nil
	}
	return &Signer{Direct: &DirectSigner{Addr: addr}}, nil
}

func (s *Signer) Identity() common.Address {
	switch {
	case s.Direct != nil:
		return s.Direct.Addr
	case s.Delegated != nil:
		return s.Delegated.Account
	default:
		return common.Address{}
	}
}

func (s *Signer) Verify(ctx context.Context, view AccountView, hash common.Hash, sig []byte) error {
	switch {
	case s.Direct != nil:
		return s.Direct.Verify(ctx, view, hash, sig)
	case s.Delegated != nil:
		return s.Delegated.Verify(ctx, view, hash, sig)
	default:
		return ErrNoSigner
	}
}

// VerifySignature checks that [signer] authorized [hash].
func VerifySignature(
	ctx context.Context,
	view AccountView,
	signer common.Address,
	hash common.Hash,
	sig []byte,
) error {
	s, err := Resolve(ctx, view, signer)
	if err != nil {
		return err
	}
	return s.Verify(ctx, view, hash, sig)
}
